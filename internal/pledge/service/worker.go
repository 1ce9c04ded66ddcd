package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"evento/internal/pledge"
	"evento/internal/pledge/invoice"
)

// Worker runs the two background loops of the pledge lifecycle: the
// settlement watcher (polls the invoice backend for pending pledges) and the
// expiry sweeper (marks overdue pending pledges expired).
type Worker struct {
	service *Service

	settleInterval time.Duration
	sweepInterval  time.Duration
	batchSize      int
}

// NewWorker creates a Worker around the pledge service.
func NewWorker(service *Service, settleInterval, sweepInterval time.Duration) *Worker {
	return &Worker{
		service:        service,
		settleInterval: settleInterval,
		sweepInterval:  sweepInterval,
		batchSize:      100,
	}
}

// Run blocks until ctx is cancelled, driving both loops.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.loop(ctx, w.settleInterval, w.CheckPending) })
	g.Go(func() error { return w.loop(ctx, w.sweepInterval, w.SweepExpired) })
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				w.service.logger.WarnContext(ctx, "pledge worker iteration failed", "error", err)
			}
		}
	}
}

// CheckPending asks the invoice backend about every pending pledge and
// applies observed transitions. One backend failure skips that pledge only.
func (w *Worker) CheckPending(ctx context.Context) error {
	pending, err := w.service.store.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for _, p := range pending {
		state, err := w.service.invoicer.InvoiceState(ctx, p.PaymentHash)
		if err != nil {
			w.service.logger.WarnContext(ctx, "invoice state check failed",
				"pledge_id", p.ID,
				"error", err,
			)
			continue
		}
		switch state {
		case invoice.StatePaid:
			if err := w.service.Settle(ctx, p.ID); err != nil {
				return err
			}
		case invoice.StateExpired:
			if err := w.service.Expire(ctx, p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// SweepExpired expires pending pledges whose invoice window lapsed, catching
// anything the backend never reported.
func (w *Worker) SweepExpired(ctx context.Context) error {
	pending, err := w.service.store.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	now := w.service.clock()
	for _, p := range pending {
		if p.Status == pledge.StatusPending && now.After(p.ExpiresAt) {
			if err := w.service.Expire(ctx, p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
