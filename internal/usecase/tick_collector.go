package usecase

import (
	"context"
	"fmt"
	"time"

	"TapeLens/internal/domain/repository"
	"TapeLens/internal/middleware"
	applogger "TapeLens/pkg/logger"
)

// TickCollector drains a live tick stream into the ingress. It owns the
// reconnect loop: a broken stream is re-established with the source's own
// backoff and reading resumes.
type TickCollector struct {
	stream  repository.TickStream
	ingress *middleware.Ingress
	metrics repository.Metrics
	log     *applogger.Logger
}

func NewTickCollector(stream repository.TickStream, ingress *middleware.Ingress, metrics repository.Metrics, log *applogger.Logger) *TickCollector {
	return &TickCollector{
		stream:  stream,
		ingress: ingress,
		metrics: metrics,
		log:     log,
	}
}

// Run blocks until ctx is cancelled or the stream fails beyond recovery.
func (tc *TickCollector) Run(ctx context.Context) error {
	if err := tc.stream.Connect(ctx); err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	if err := tc.stream.Subscribe(ctx); err != nil {
		return fmt.Errorf("stream subscribe: %w", err)
	}
	tc.log.Info("tick stream connected")

	for {
		ticks, errs := tc.stream.Read(ctx)
	readLoop:
		for {
			select {
			case <-ctx.Done():
				return tc.stream.Close()
			case t, ok := <-ticks:
				if !ok {
					break readLoop
				}
				if err := tc.ingress.Accept(ctx, t); err != nil {
					tc.log.Debug("tick rejected", applogger.Error(err))
				}
			case err, ok := <-errs:
				if !ok {
					break readLoop
				}
				tc.log.Warn("stream read failed", applogger.Error(err))
				tc.metrics.RecordError("stream_read")
				break readLoop
			}
		}

		if ctx.Err() != nil {
			return tc.stream.Close()
		}
		tc.log.Info("reconnecting tick stream")
		if err := tc.stream.Reconnect(ctx); err != nil {
			return fmt.Errorf("stream reconnect: %w", err)
		}
		if err := tc.stream.Subscribe(ctx); err != nil {
			return fmt.Errorf("stream resubscribe: %w", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
