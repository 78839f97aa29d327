package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/campusbridge/webhooks/internal/domain"
)

// Submitter queues a forward job without waiting for it
type Submitter interface {
	Submit(job ForwardJob) error
}

// CallValidatorService implements domain.WebhookProcessor for the webhook entry point.
// It authenticates, classifies and checks the call, then hands it to the forward pool.
type CallValidatorService struct {
	auth   *WebhookAuthenticator
	routes domain.RoutingTable
	pool   Submitter
	logger domain.Logger
}

// NewCallValidatorService creates a new call validator with dependency injection
func NewCallValidatorService(
	auth *WebhookAuthenticator,
	routes domain.RoutingTable,
	pool Submitter,
	logger domain.Logger,
) *CallValidatorService {
	return &CallValidatorService{
		auth:   auth,
		routes: routes,
		pool:   pool,
		logger: logger,
	}
}

// Process runs the verify, classify, check and redirect pipeline.
// Every result it returns is acknowledged with 200 by the handler.
func (s *CallValidatorService) Process(ctx context.Context, req domain.WebhookRequest) domain.Result {
	log := s.logger.With("webhook_id", req.WebhookID, "topic", req.Topic)
	log.Info("start validating a call", "shop_domain", req.ShopDomain)

	// Step 1: Authenticate
	if err := s.auth.Authenticate(req); err != nil {
		return authFailure(log, req, err)
	}

	// Step 2: Parse payload
	if !json.Valid(req.Body) {
		log.Warn("payload is not valid JSON")
		return domain.ValidationFailure(http.StatusOK, "Invalid payload", domain.ErrInvalidPayload)
	}

	// Step 3: Classify and check preconditions
	kind := domain.Classify(req.Topic)
	switch kind {
	case domain.EventOrderPaid:
		var order domain.Order
		if err := json.Unmarshal(req.Body, &order); err != nil {
			log.Warn("order payload could not be decoded", "error", err.Error())
			return domain.ValidationFailure(http.StatusOK, "Invalid payload", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		}
		if !order.IsPaid() {
			log.Info("ignoring unpaid order", "financial_status", order.FinancialStatus)
			return domain.Ignored("Can't handle unpaid calls")
		}
		if err := CheckOrder(order); err != nil {
			log.Warn("bad request", "error", err.Error(), "order_id", order.ID)
			return domain.ValidationFailure(http.StatusOK, MissingPurchaseFields, err)
		}
		log.Info("purchase call is valid", "email", order.Email, "skus", order.SKUs())
	case domain.EventProductUpsert:
	default:
		log.Info("topic not handled")
		return domain.Ignored("Invalid topic to handle")
	}

	// Step 4: Redirect
	return s.redirect(log, kind, req)
}

func (s *CallValidatorService) redirect(log domain.Logger, kind domain.EventKind, req domain.WebhookRequest) domain.Result {
	target := s.routes[kind]
	if target == "" {
		err := fmt.Errorf("no route for %s", kind)
		log.Error("call is valid but has nowhere to go", err)
		return domain.DownstreamFailure(http.StatusOK, "Call is valid but could not be redirected", err)
	}

	if err := s.pool.Submit(ForwardJob{URL: target, Request: req}); err != nil {
		log.Error("forward not queued", err)
		if !errors.Is(err, domain.ErrQueueFull) {
			err = fmt.Errorf("%w: %v", domain.ErrQueueFull, err)
		}
		return domain.DownstreamFailure(http.StatusOK, "Call is valid but could not be redirected", err)
	}

	log.Info("sent a request", "url", target, "event", kind.String())
	return domain.Accepted(http.StatusOK, "Call is valid redirected to "+target)
}
