package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campusbridge/webhooks/internal/domain"
)

// ForwardJob is one webhook waiting to be relayed downstream
type ForwardJob struct {
	URL     string
	Request domain.WebhookRequest
}

// ForwardPool relays webhooks on a single background worker.
// Submit never waits for the relay; results are logged and otherwise discarded.
type ForwardPool struct {
	relay    domain.Relay
	timeout  time.Duration
	logger   domain.Logger
	reporter domain.ErrorReporter

	jobs   chan ForwardJob
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewForwardPool starts the worker; queueSize bounds how many forwards may wait
func NewForwardPool(relay domain.Relay, queueSize int, timeout time.Duration, logger domain.Logger, reporter domain.ErrorReporter) *ForwardPool {
	p := &ForwardPool{
		relay:    relay,
		timeout:  timeout,
		logger:   logger,
		reporter: reporter,
		jobs:     make(chan ForwardJob, queueSize),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues a job without blocking
func (p *ForwardPool) Submit(job ForwardJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("%w: pool closed", domain.ErrQueueFull)
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish
func (p *ForwardPool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	<-p.done
}

func (p *ForwardPool) run() {
	defer close(p.done)
	for job := range p.jobs {
		p.forward(job)
	}
}

func (p *ForwardPool) forward(job ForwardJob) {
	log := p.logger.With("webhook_id", job.Request.WebhookID, "url", job.URL)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("forward panic: %v", r)
			log.Error("forward crashed", err)
			p.reporter.Report(err, nil)
		}
	}()

	// the inbound request is long gone, so the forward gets its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.relay.Forward(ctx, job.URL, job.Request); err != nil {
		log.Error("forward failed", err)
		p.reporter.Report(err, nil)
		return
	}
	log.Info("forward delivered", "duration_ms", time.Since(start).Milliseconds())
}
