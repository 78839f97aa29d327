package domain

import "errors"

// Domain errors
var (
	// ErrInvalidSignature returned when HMAC signature validation fails
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidOrigin returned when the declared shop domain is not the configured store
	ErrInvalidOrigin = errors.New("unauthorized caller")

	// ErrInvalidPayload returned when webhook payload cannot be parsed
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrMissingField returned when required field is missing
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidCourse returned when a product SKU matches no campus course
	ErrInvalidCourse = errors.New("sku is not a campus course")

	// ErrCatalogUnavailable returned when a campus catalog page cannot be fetched or decoded
	ErrCatalogUnavailable = errors.New("campus catalog unavailable")

	// ErrPaginationLimit returned when a catalog keeps announcing pages past the hard cap
	ErrPaginationLimit = errors.New("catalog pagination limit reached")

	// ErrUnknownSite returned when a purchased SKU cannot be tied to a configured campus site
	ErrUnknownSite = errors.New("unknown campus site")

	// ErrCampusUnavailable returned when a campus API call gets no usable response
	ErrCampusUnavailable = errors.New("campus api unavailable")

	// ErrStoreUnavailable returned when a store admin API call fails
	ErrStoreUnavailable = errors.New("store admin api unavailable")

	// ErrQueueFull returned when the forward queue cannot take another job
	ErrQueueFull = errors.New("forward queue full")
)
