package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Watcher is a websocket client for a server's event feed. Dialing is retried
// with exponential backoff; received events are delivered on Events until
// the connection drops or Close is called.
type Watcher struct {
	URL      string
	MaxRetry int

	// Exponential backoff configuration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Dialer    websocket.Dialer

	Events chan Event

	mu         sync.Mutex
	conn       *websocket.Conn
	retryCount int
	done       chan struct{}
	closeOnce  sync.Once
	eventsOnce sync.Once
}

// NewWatcher creates a watcher for the feed at baseURL (ws:// or wss://).
// A non-empty graphID restricts the feed to that graph.
func NewWatcher(baseURL string, graphID string) (*Watcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported event feed scheme %q", u.Scheme)
	}
	if graphID != "" {
		q := u.Query()
		q.Set("graph", graphID)
		u.RawQuery = q.Encode()
	}
	return &Watcher{
		URL:       u.String(),
		MaxRetry:  5,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  30 * time.Second,
		Dialer:    *websocket.DefaultDialer,
		Events:    make(chan Event, sendBuffer),
		done:      make(chan struct{}),
	}, nil
}

// Connect dials the feed, retrying up to MaxRetry times. timeout bounds the
// whole attempt; zero waits indefinitely. When Connect fails the watcher is
// closed and Events is closed with it.
func (w *Watcher) Connect(timeout time.Duration) error {
	connected := make(chan error, 1)

	go func() {
		retries := 0
		for {
			err := w.dial()
			if err == nil {
				select {
				case <-w.done:
					// gave up while the dial was in flight
					w.mu.Lock()
					w.conn.Close()
					w.mu.Unlock()
					w.closeEvents()
					return
				default:
				}
				connected <- nil
				w.readLoop()
				return
			}
			slog.Error("Connection attempt failed", "url", w.URL, "error", err)
			retries++
			if retries > w.MaxRetry {
				w.closeEvents()
				connected <- fmt.Errorf("maximum number of retries reached (%d): %w", w.MaxRetry, err)
				return
			}
			select {
			case <-time.After(w.reconnectDelay()):
			case <-w.done:
				w.closeEvents()
				connected <- fmt.Errorf("watcher closed")
				return
			}
		}
	}()

	if timeout <= 0 {
		return <-connected
	}
	select {
	case err := <-connected:
		return err
	case <-time.After(timeout):
		w.Close()
		return fmt.Errorf("connection timeout after %v", timeout)
	}
}

// Close ends the connection; Events is closed once the read loop exits.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.conn != nil {
			w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			err = w.conn.Close()
		}
	})
	return err
}

func (w *Watcher) dial() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	conn, _, err := w.Dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	return nil
}

func (w *Watcher) readLoop() {
	defer func() {
		w.mu.Lock()
		w.conn.Close()
		w.mu.Unlock()
		w.closeEvents()
	}()
	for {
		_, message, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				slog.Warn("Event feed read error", "error", err)
			}
			return
		}
		ev := Event{}
		if err := json.Unmarshal(message, &ev); err != nil {
			slog.Warn("Discarding malformed event", "error", err)
			continue
		}
		select {
		case w.Events <- ev:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) closeEvents() {
	w.eventsOnce.Do(func() { close(w.Events) })
}

// delay is BaseDelay * 2^retryCount, capped at MaxDelay
func (w *Watcher) reconnectDelay() time.Duration {
	delay := w.BaseDelay * time.Duration(math.Pow(2, float64(w.retryCount)))
	if delay > w.MaxDelay {
		delay = w.MaxDelay
	}
	w.retryCount++
	return delay
}
