package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mines_wager/internal/domain"
	"mines_wager/internal/metrics"

	"golang.org/x/sync/errgroup"
)

var ErrOutboxFull = errors.New("outbox full")

// MemoryOutbox is a process-local Outbox used when Redis is not configured
type MemoryOutbox struct {
	ch chan domain.OrderReport

	mu   sync.Mutex
	dead []domain.OrderReport
}

func NewMemoryOutbox(size int) *MemoryOutbox {
	return &MemoryOutbox{ch: make(chan domain.OrderReport, size)}
}

// Enqueue never blocks: the caller may be holding a session lock
func (o *MemoryOutbox) Enqueue(_ context.Context, report domain.OrderReport) error {
	select {
	case o.ch <- report:
		return nil
	default:
		return ErrOutboxFull
	}
}

func (o *MemoryOutbox) Dequeue(ctx context.Context) (*domain.OrderReport, error) {
	select {
	case r := <-o.ch:
		return &r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *MemoryOutbox) DeadLetter(_ context.Context, report domain.OrderReport) error {
	o.mu.Lock()
	o.dead = append(o.dead, report)
	o.mu.Unlock()
	return nil
}

// Dead returns a copy of the dead-lettered reports
func (o *MemoryOutbox) Dead() []domain.OrderReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.OrderReport(nil), o.dead...)
}

// ReportDispatcher drains the outbox into the settlement platform
type ReportDispatcher struct {
	outbox      Outbox
	reporter    OrderReporter
	workers     int
	maxAttempts int
	retryDelay  time.Duration
	log         *slog.Logger
}

type DispatcherConfig struct {
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewReportDispatcher(outbox Outbox, reporter OrderReporter, cfg DispatcherConfig, log *slog.Logger) *ReportDispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &ReportDispatcher{
		outbox:      outbox,
		reporter:    reporter,
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		log:         log,
	}
}

// Run blocks until ctx is cancelled
func (d *ReportDispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		worker := i
		g.Go(func() error {
			d.work(ctx, worker)
			return nil
		})
	}
	return g.Wait()
}

func (d *ReportDispatcher) work(ctx context.Context, worker int) {
	for {
		report, err := d.outbox.Dequeue(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.log.Error("outbox dequeue failed", "worker", worker, "error", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		d.deliver(ctx, report)
	}
}

func (d *ReportDispatcher) deliver(ctx context.Context, report *domain.OrderReport) {
	report.Attempts++

	err := d.reporter.ReportOrder(ctx, *report)
	if err == nil {
		metrics.SettlementReports.WithLabelValues("delivered").Inc()
		d.log.Debug("order reported",
			"correlation_id", report.CorrelationID,
			"player_id", report.PlayerID,
			"attempts", report.Attempts,
		)
		return
	}

	if errors.Is(err, ErrPlatformRejected) || report.Attempts >= d.maxAttempts {
		metrics.SettlementReports.WithLabelValues("dead").Inc()
		d.log.Error("order report dead-lettered",
			"correlation_id", report.CorrelationID,
			"player_id", report.PlayerID,
			"attempts", report.Attempts,
			"error", err,
		)
		if dlErr := d.outbox.DeadLetter(context.WithoutCancel(ctx), *report); dlErr != nil {
			d.log.Error("dead letter write failed", "correlation_id", report.CorrelationID, "error", dlErr)
		}
		return
	}

	metrics.SettlementReports.WithLabelValues("retry").Inc()
	d.log.Warn("order report failed, requeueing",
		"correlation_id", report.CorrelationID,
		"player_id", report.PlayerID,
		"attempts", report.Attempts,
		"error", err,
	)

	sleepCtx(ctx, d.retryDelay*time.Duration(report.Attempts))
	if qErr := d.outbox.Enqueue(context.WithoutCancel(ctx), *report); qErr != nil {
		d.log.Error("order report requeue failed", "correlation_id", report.CorrelationID, "error", qErr)
	}
}

// sleepCtx waits for d, reporting false when ctx ended first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
