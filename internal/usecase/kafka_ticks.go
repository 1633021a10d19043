package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/middleware"
	applogger "TapeLens/pkg/logger"
)

// tickMessage is the wire shape of one tick on the ticks topic.
type tickMessage struct {
	Instrument string  `json:"instrument"`
	Timestamp  int64   `json:"t"` // unix milliseconds
	LTP        float64 `json:"ltp"`
	Qty        float64 `json:"qty"`
	OI         float64 `json:"oi"`
	IV         float64 `json:"iv"`
	Underlying string  `json:"underlying,omitempty"`
	Strike     float64 `json:"strike,omitempty"`
	Side       string  `json:"side,omitempty"`
}

// KafkaTicksHandler decodes tick messages and feeds them to the ingress.
type KafkaTicksHandler struct {
	topic   string
	ingress *middleware.Ingress
	log     *applogger.Logger
}

func NewKafkaTicksHandler(topic string, ingress *middleware.Ingress, log *applogger.Logger) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, ingress: ingress, log: log}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var msg tickMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		// Malformed payloads are logged and dropped, never retried.
		h.log.Warn("undecodable tick message", applogger.Error(err))
		return nil
	}
	t := &models.Tick{
		Instrument: msg.Instrument,
		Timestamp:  time.UnixMilli(msg.Timestamp),
		LTP:        msg.LTP,
		Qty:        msg.Qty,
		OI:         msg.OI,
		IV:         msg.IV,
		Underlying: msg.Underlying,
		Strike:     msg.Strike,
		Side:       msg.Side,
	}
	if err := h.ingress.Accept(ctx, t); err != nil {
		if errors.Is(err, middleware.ErrInvalidTick) {
			// A tick that fails validation fails on every retry too.
			h.log.Warn("dropping invalid tick", applogger.Error(err))
			return nil
		}
		return fmt.Errorf("accept tick: %w", err)
	}
	return nil
}
