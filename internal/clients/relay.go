package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/campusbridge/webhooks/internal/domain"
)

// ForwardRelay posts a webhook, body and store headers untouched, to a downstream function
type ForwardRelay struct {
	client *resty.Client
}

// NewForwardRelay creates a relay; no retries are configured
func NewForwardRelay(timeout time.Duration) *ForwardRelay {
	return &ForwardRelay{client: resty.New().SetTimeout(timeout)}
}

// Forward delivers req to url
func (r *ForwardRelay) Forward(ctx context.Context, url string, req domain.WebhookRequest) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(domain.HeaderTopic, req.Topic).
		SetHeader(domain.HeaderShopDomain, req.ShopDomain).
		SetHeader(domain.HeaderSignature, req.Signature).
		SetHeader(domain.HeaderWebhookID, req.WebhookID).
		SetBody(req.Body).
		Post(url)
	if err != nil {
		return fmt.Errorf("forward to %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("forward to %s: downstream answered %d", url, resp.StatusCode())
	}
	return nil
}
