package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
)

// Webhook posts signal transitions as JSON to a configured endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates the webhook notifier.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookPayload struct {
	Instrument string    `json:"instrument"`
	Timestamp  time.Time `json:"timestamp"`
	Signal     string    `json:"signal"`
	PrevSignal string    `json:"prev_signal"`
	Thesis     string    `json:"thesis"`
	Playbook   string    `json:"playbook"`
	Conviction float64   `json:"conviction"`
	LTP        float64   `json:"ltp"`
	Bulls      []string  `json:"bullish_drivers,omitempty"`
	Bears      []string  `json:"bearish_drivers,omitempty"`
}

func (w *Webhook) Notify(ctx context.Context, res *models.AnalysisResult, prevSignal string) error {
	body, err := json.Marshal(webhookPayload{
		Instrument: res.Instrument,
		Timestamp:  res.UpdatedAt,
		Signal:     res.PrimarySignal,
		PrevSignal: prevSignal,
		Thesis:     res.Thesis.String(),
		Playbook:   res.Playbook,
		Conviction: res.ConvictionScore,
		LTP:        res.LTP,
		Bulls:      res.BullishDrivers,
		Bears:      res.BearishDrivers,
	})
	if err != nil {
		return fmt.Errorf("webhook marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans one transition out to several notifiers; the first error is
// returned but every notifier is attempted.
type Multi struct {
	notifiers []repository.Notifier
}

// NewMulti builds a fan-out notifier; nil members are skipped.
func NewMulti(notifiers ...repository.Notifier) *Multi {
	var ns []repository.Notifier
	for _, n := range notifiers {
		if n != nil {
			ns = append(ns, n)
		}
	}
	return &Multi{notifiers: ns}
}

func (m *Multi) Notify(ctx context.Context, res *models.AnalysisResult, prevSignal string) error {
	var first error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, res, prevSignal); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop discards transitions; used when no delivery channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, *models.AnalysisResult, string) error { return nil }
