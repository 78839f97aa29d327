package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/campusbridge/webhooks/internal/domain"
)

// Mode selects how a handler turns a result into an HTTP status
type Mode int

const (
	// ModeAcknowledge always answers 200 so the store never redelivers
	ModeAcknowledge Mode = iota
	// ModeStageStatus answers with the status the stage chose
	ModeStageStatus
)

// WebhookHandler handles incoming webhook requests (HTTP transport layer)
type WebhookHandler struct {
	processor domain.WebhookProcessor
	reporter  domain.ErrorReporter
	logger    domain.Logger
	mode      Mode
	maxBody   int64
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor domain.WebhookProcessor, reporter domain.ErrorReporter, logger domain.Logger, mode Mode, maxBody int64) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		reporter:  reporter,
		logger:    logger,
		mode:      mode,
		maxBody:   maxBody,
	}
}

// ServeHTTP handles HTTP requests to the webhook endpoint
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer recoverUnexpected(w, r, h.reporter, h.logger)

	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := readWebhook(w, r, h.maxBody)
	if err != nil {
		h.logger.Warn("failed to read request body", "error", err.Error())
		h.write(w, domain.ValidationFailure(http.StatusBadRequest, "Invalid payload", err))
		return
	}

	result := h.processor.Process(r.Context(), req)
	if result.Failed() {
		h.reporter.Report(result.Err, r)
	}
	h.logger.Info("call answered",
		"webhook_id", req.WebhookID,
		"outcome", result.Outcome.String(),
		"status", result.Status,
		"message", result.Message,
	)
	h.write(w, result)
}

func (h *WebhookHandler) write(w http.ResponseWriter, result domain.Result) {
	status := result.Status
	if h.mode == ModeAcknowledge || status == 0 {
		status = http.StatusOK
	}
	writeText(w, status, result.Message)
}

// readWebhook extracts the store headers and at most maxBody bytes of body
func readWebhook(w http.ResponseWriter, r *http.Request, maxBody int64) (domain.WebhookRequest, error) {
	defer r.Body.Close()

	var reader io.Reader = r.Body
	if maxBody > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.WebhookRequest{}, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidPayload, tooLarge.Limit)
		}
		return domain.WebhookRequest{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	id := r.Header.Get(domain.HeaderWebhookID)
	if id == "" {
		id = uuid.New().String()
	}

	return domain.WebhookRequest{
		Body:       body,
		Topic:      r.Header.Get(domain.HeaderTopic),
		ShopDomain: r.Header.Get(domain.HeaderShopDomain),
		Signature:  r.Header.Get(domain.HeaderSignature),
		WebhookID:  id,
	}, nil
}

// TaskRunner is a stage started by a scheduler rather than a webhook
type TaskRunner interface {
	Run(ctx context.Context) domain.Result
}

// TaskHandler exposes a TaskRunner over HTTP
type TaskHandler struct {
	runner   TaskRunner
	reporter domain.ErrorReporter
	logger   domain.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(runner TaskRunner, reporter domain.ErrorReporter, logger domain.Logger) *TaskHandler {
	return &TaskHandler{runner: runner, reporter: reporter, logger: logger}
}

// ServeHTTP runs the task and answers with its status
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer recoverUnexpected(w, r, h.reporter, h.logger)

	result := h.runner.Run(r.Context())
	if result.Failed() {
		h.reporter.Report(result.Err, r)
	}
	h.logger.Info("task finished", "status", result.Status, "message", result.Message)
	writeText(w, result.Status, result.Message)
}

// recoverUnexpected turns a panic into the acknowledged "Unexpected error" answer
func recoverUnexpected(w http.ResponseWriter, r *http.Request, reporter domain.ErrorReporter, logger domain.Logger) {
	rec := recover()
	if rec == nil {
		return
	}
	err := fmt.Errorf("panic: %v", rec)
	logger.With("stack", string(debug.Stack())).Error("unexpected failure", err)
	reporter.Report(err, r)

	result := domain.UnexpectedFailure(err)
	writeText(w, result.Status, result.Message)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
