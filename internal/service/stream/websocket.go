package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
	applogger "TapeLens/pkg/logger"
)

// Client implements a TickStream over a websocket feed.
type Client struct {
	url            string
	apiKey         string
	instruments    []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	// mu guards conn and connected, and serializes writes: the websocket
	// allows only one writer at a time, and pings race subscribes otherwise.
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a websocket tick stream.
func New(url, apiKey string, instruments []string, reconnectDelay, pingInterval time.Duration, log *applogger.Logger) repository.TickStream {
	return &Client{
		url:            url,
		apiKey:         apiKey,
		instruments:    instruments,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect dials the feed with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	u := c.url
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.url, c.apiKey)
	}
	var conn *websocket.Conn
	op := func() error {
		dialed, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
		if err != nil {
			return fmt.Errorf("stream connect: %w", err)
		}
		conn = dialed
		return nil
	}
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("stream connected", applogger.String("url", c.url))
	return nil
}

// Subscribe subscribes to the configured instruments.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("stream not connected")
	}
	for _, ins := range c.instruments {
		msg := map[string]string{"type": "subscribe", "instrument": ins}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", ins, err)
		}
	}
	c.log.Info("stream subscribed", applogger.Int("instruments", len(c.instruments)))
	return nil
}

func (c *Client) writePing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return
	}
	_ = c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

type wsTick struct {
	Instrument string  `json:"instrument"`
	T          int64   `json:"t"` // ms
	LTP        float64 `json:"ltp"`
	Qty        float64 `json:"qty"`
	OI         float64 `json:"oi"`
	IV         float64 `json:"iv"`
	Underlying string  `json:"underlying"`
	Strike     float64 `json:"strike"`
	Side       string  `json:"side"`
}

type wsFrame struct {
	Type string   `json:"type"`
	Data []wsTick `json:"data"`
}

// Read streams tick events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// The pinger lives exactly as long as its reader. Each reconnect starts
	// a fresh Read, so a pinger left on the old connection must stop.
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				c.writePing()
			}
		}
	}()

	go func() {
		defer close(done)
		defer close(ticks)
		defer close(errs)
		conn := c.currentConn()
		if conn == nil {
			errs <- fmt.Errorf("stream conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("stream read: %w", err)
				return
			}
			var frame wsFrame
			if err := json.Unmarshal(b, &frame); err != nil || frame.Type != "tick" {
				continue // ignore non-tick frames
			}
			for _, d := range frame.Data {
				t := &models.Tick{
					Instrument: d.Instrument,
					Timestamp:  time.UnixMilli(d.T),
					LTP:        d.LTP,
					Qty:        d.Qty,
					OI:         d.OI,
					IV:         d.IV,
					Underlying: d.Underlying,
					Strike:     d.Strike,
					Side:       d.Side,
				}
				select {
				case ticks <- t:
				default:
					// drop on backpressure; the next tick supersedes it
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and re-establishes the subscription.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports connection status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
