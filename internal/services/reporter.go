package services

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/errorreporting"

	"github.com/campusbridge/webhooks/internal/domain"
)

// CloudErrorReporter sends failures to Cloud Error Reporting
type CloudErrorReporter struct {
	client *errorreporting.Client
}

// NewCloudErrorReporter creates an error reporting client for the service
func NewCloudErrorReporter(ctx context.Context, projectID, service string, logger domain.Logger) (*CloudErrorReporter, error) {
	client, err := errorreporting.NewClient(ctx, projectID, errorreporting.Config{
		ServiceName: service,
		OnError: func(err error) {
			logger.Error("error reporting failed", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create error reporting client: %w", err)
	}
	return &CloudErrorReporter{client: client}, nil
}

// Report queues err for upload; req may be nil
func (r *CloudErrorReporter) Report(err error, req *http.Request) {
	if err == nil {
		return
	}
	r.client.Report(errorreporting.Entry{Error: err, Req: req})
}

// Close flushes pending reports
func (r *CloudErrorReporter) Close() error {
	return r.client.Close()
}

// LogReporter is the reporter used outside production
type LogReporter struct {
	logger domain.Logger
}

// NewLogReporter creates a reporter that only logs
func NewLogReporter(logger domain.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs err at debug level; it was already logged where it happened
func (r *LogReporter) Report(err error, req *http.Request) {
	if err == nil {
		return
	}
	r.logger.Debug("error not reported outside production", "error", err.Error())
}
