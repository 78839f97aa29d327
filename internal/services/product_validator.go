package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campusbridge/webhooks/internal/domain"
)

// InvalidCourseSubject is the email subject sent when a product is unpublished
const InvalidCourseSubject = "Invalid Course ID - Shopify call validator"

// ProductValidatorService checks that a store product's SKU is a real campus course
type ProductValidatorService struct {
	auth     *WebhookAuthenticator
	catalog  *CatalogService
	store    domain.StoreAPI
	notifier domain.Notifier
	reporter domain.ErrorReporter
	logger   domain.Logger
}

// NewProductValidatorService creates a new product validator with dependency injection
func NewProductValidatorService(
	auth *WebhookAuthenticator,
	catalog *CatalogService,
	store domain.StoreAPI,
	notifier domain.Notifier,
	reporter domain.ErrorReporter,
	logger domain.Logger,
) *ProductValidatorService {
	return &ProductValidatorService{
		auth:     auth,
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		reporter: reporter,
		logger:   logger,
	}
}

// Process authenticates a products/create or products/update call and validates the product
func (s *ProductValidatorService) Process(ctx context.Context, req domain.WebhookRequest) domain.Result {
	log := s.logger.With("webhook_id", req.WebhookID, "topic", req.Topic)

	if err := s.auth.Authenticate(req); err != nil {
		return authFailure(log, req, err)
	}

	var product domain.Product
	if err := json.Unmarshal(req.Body, &product); err != nil {
		log.Warn("product payload could not be decoded", "error", err.Error())
		return domain.ValidationFailure(http.StatusOK, "Invalid payload", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
	}

	return s.Validate(ctx, product)
}

// Validate unpublishes the product when its SKU is not offered by any campus site
func (s *ProductValidatorService) Validate(ctx context.Context, product domain.Product) domain.Result {
	sku := product.SKU()
	log := s.logger.With("product_id", product.ID, "sku", sku)

	ids, err := s.catalog.CourseIDs(ctx)
	if err != nil {
		log.Error("catalog is inaccessible, SKU not judged", err)
		s.reporter.Report(err, nil)
		return domain.DownstreamFailure(http.StatusMultiStatus, "Catalog is inaccessible",
			fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err))
	}

	if sku != "" && ids[sku] {
		log.Info("SKU is valid")
		return domain.Accepted(http.StatusOK, "SKU is valid")
	}

	log.Warn("SKU is not a campus course, unpublishing")
	title, err := s.store.UnpublishProduct(ctx, product.ID)
	if err != nil {
		log.Error("product could not be unpublished", err)
		s.reporter.Report(err, nil)
		title = product.Title
	}

	shop, err := s.store.Shop(ctx)
	if err != nil {
		log.Warn("store details unavailable, notifying operator only", "error", err.Error())
	}

	note := domain.Notification{
		Subject:    InvalidCourseSubject,
		Text:       fmt.Sprintf("The product %q was unpublished because its SKU %q is not a valid course ID.", title, sku),
		AdminEmail: shop.AdminEmail(),
		AdminName:  shop.Name,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		log.Error("notification failed", err)
	}

	return domain.ValidationFailure(http.StatusConflict, "SKU wasn't valid", fmt.Errorf("%w: %q", domain.ErrInvalidCourse, sku))
}
