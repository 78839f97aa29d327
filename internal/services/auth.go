package services

import (
	"errors"

	"github.com/campusbridge/webhooks/internal/domain"
)

// WebhookAuthenticator decides whether a webhook really comes from the configured store
type WebhookAuthenticator struct {
	validator domain.SignatureValidator
	storeURL  string
}

// NewWebhookAuthenticator creates an authenticator for one store
func NewWebhookAuthenticator(validator domain.SignatureValidator, storeURL string) *WebhookAuthenticator {
	return &WebhookAuthenticator{validator: validator, storeURL: storeURL}
}

// Authenticate returns nil, domain.ErrInvalidSignature or domain.ErrInvalidOrigin.
// The signature is checked first: the origin header means nothing until the body is trusted.
func (a *WebhookAuthenticator) Authenticate(req domain.WebhookRequest) error {
	if err := a.validator.Validate(req.Body, req.Signature); err != nil {
		return domain.ErrInvalidSignature
	}
	if req.Origin() != a.storeURL {
		return domain.ErrInvalidOrigin
	}
	return nil
}

// authFailure turns an authentication error into the acknowledged result, logging it
func authFailure(logger domain.Logger, req domain.WebhookRequest, err error) domain.Result {
	msg := "Unauthorized caller"
	if errors.Is(err, domain.ErrInvalidSignature) {
		msg = "Store signature is not valid"
	}
	logger.Warn("unauthorized access", "reason", msg, "shop_domain", req.ShopDomain)
	return domain.AuthFailure(msg, err)
}
