package usecase

import (
	"context"
	"testing"
	"time"

	"TapeLens/internal/domain/repository"
	"TapeLens/internal/engine"
	"TapeLens/internal/middleware"
	applogger "TapeLens/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)                {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordSignal(string, string)      {}
func (nopMetrics) RecordConviction(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)    {}

type fixedSettings struct{}

func (fixedSettings) Snapshot() repository.Settings {
	return repository.Settings{TickSize: 0.05, CandleInterval: time.Minute, DebounceWindow: time.Minute}
}

func newTestHandler() *KafkaTicksHandler {
	p := engine.New(fixedSettings{}, nopMetrics{}, applogger.Nop(), 1, 1)
	in := middleware.NewIngress(p, nopMetrics{}, applogger.Nop(), 0)
	return NewKafkaTicksHandler("market.ticks", in, applogger.Nop())
}

func TestKafkaTicksHandlerTopic(t *testing.T) {
	if got := newTestHandler().Topic(); got != "market.ticks" {
		t.Fatalf("topic = %q", got)
	}
}

func TestKafkaTicksHandlerValidMessage(t *testing.T) {
	h := newTestHandler()
	msg := []byte(`{"instrument":"NIFTY26JANFUT","t":1767610800000,"ltp":21450.5,"qty":75,"oi":1200000}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestKafkaTicksHandlerMalformedDropped(t *testing.T) {
	h := newTestHandler()
	// Undecodable payloads are dropped without error so the consumer never retries them.
	if err := h.Handle(context.Background(), []byte(`{broken`)); err != nil {
		t.Fatalf("handle malformed: %v", err)
	}
}

func TestKafkaTicksHandlerInvalidTickDropped(t *testing.T) {
	h := newTestHandler()
	// A tick with no instrument can never validate; the handler must swallow
	// it so the consumer's retry loop is reserved for transient failures.
	msg := []byte(`{"instrument":"","t":1767610800000,"ltp":21450.5,"qty":75}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle invalid tick: %v", err)
	}
}
