package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
	"TapeLens/internal/engine"
	applogger "TapeLens/pkg/logger"
)

// ErrInvalidTick marks ticks that can never be accepted. Sources must drop
// them instead of retrying.
var ErrInvalidTick = errors.New("invalid tick")

// Ingress sits between a tick source and the pipeline. It rejects malformed
// ticks and throttles per-instrument bursts so one noisy contract cannot
// starve the shard it shares with others.
type Ingress struct {
	pipeline *engine.Pipeline
	metrics  repository.Metrics
	log      *applogger.Logger

	maxTPS   int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewIngress wraps the pipeline. maxTPS <= 0 disables throttling.
func NewIngress(p *engine.Pipeline, metrics repository.Metrics, log *applogger.Logger, maxTPS int) *Ingress {
	return &Ingress{
		pipeline: p,
		metrics:  metrics,
		log:      log,
		maxTPS:   maxTPS,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Accept validates and forwards one tick. Throttled ticks are dropped, not
// queued: the next tick carries fresher state anyway.
func (in *Ingress) Accept(ctx context.Context, t *models.Tick) error {
	if err := validate(t); err != nil {
		in.metrics.RecordError("ingress_invalid")
		in.log.Debug("dropping invalid tick", applogger.Error(err))
		return err
	}
	if in.maxTPS > 0 && !in.limiterFor(t.Instrument).Allow() {
		in.metrics.RecordError("ingress_throttled")
		return nil
	}
	return in.pipeline.Process(ctx, t)
}

func (in *Ingress) limiterFor(instrument string) *rate.Limiter {
	in.mu.Lock()
	defer in.mu.Unlock()
	l, ok := in.limiters[instrument]
	if !ok {
		l = rate.NewLimiter(rate.Limit(in.maxTPS), in.maxTPS)
		in.limiters[instrument] = l
	}
	return l
}

func validate(t *models.Tick) error {
	switch {
	case t == nil:
		return fmt.Errorf("%w: nil tick", ErrInvalidTick)
	case t.Instrument == "":
		return fmt.Errorf("%w: missing instrument", ErrInvalidTick)
	case t.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTick)
	case t.LTP <= 0:
		return fmt.Errorf("%w: non-positive price %.4f", ErrInvalidTick, t.LTP)
	}
	return nil
}
