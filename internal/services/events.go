package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/ytsubs/internal/shared"
)

const maxReconnectDelay = 30 * time.Second

// Event is one message pushed by the backend over its websocket.
type Event struct {
	Destination string          `json:"destination"`
	Source      string          `json:"source"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

// EventFilter selects events for a subscriber.
type EventFilter func(Event) bool

// ChannelsUpdated matches the broadcast sent after the backend's channel list changes.
func ChannelsUpdated(e Event) bool {
	return e.Destination == "broadcast" && e.Source == "channel" && e.Type == "channelsUpdated"
}

type subscription struct {
	id     int
	filter EventFilter
	fn     func(Event)
}

// EventStream keeps a websocket open to the backend and fans events out to subscribers.
//
// Dropped connections are retried with exponential backoff capped at 30 seconds.
type EventStream struct {
	url    string
	token  string
	dialer *websocket.Dialer
	logger *log.Logger

	mu     sync.Mutex
	subs   []subscription
	nextID int

	// backoff is swapped in tests.
	backoff func(retries int) time.Duration
}

// NewEventStream creates a stream for the websocket at url. token may be empty.
func NewEventStream(url, token string, logger *log.Logger) *EventStream {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &EventStream{
		url:     url,
		token:   token,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		logger:  logger,
		backoff: reconnectDelay,
	}
}

func reconnectDelay(retries int) time.Duration {
	if retries > 5 {
		return maxReconnectDelay
	}
	return min(maxReconnectDelay, time.Duration(1<<retries)*time.Second)
}

// Subscribe registers fn for events matching filter and returns an unsubscribe func.
// fn runs on the stream's read goroutine and must not block.
func (s *EventStream) Subscribe(filter EventFilter, fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, filter: filter, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *EventStream) dispatch(e Event) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.filter == nil || sub.filter(e) {
			sub.fn(e)
		}
	}
}

// Run connects and dispatches events until ctx is done. It always returns ctx.Err().
func (s *EventStream) Run(ctx context.Context) error {
	retries := 0
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			retries = 0
		}

		delay := s.backoff(retries)
		s.logger.Warn("event stream disconnected", "error", err, "retry_in", delay)
		retries++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// session runs one connection. connected reports whether the handshake succeeded.
func (s *EventStream) session(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	if s.token != "" {
		header.Set(shared.SessionHeader, s.token)
	}

	ws, _, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return false, fmt.Errorf("failed to dial %s: %w", s.url, err)
	}
	defer ws.Close()

	s.logger.Debug("event stream connected", "url", s.url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			ws.Close()
		case <-done:
		}
	}()

	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		var e Event
		if err := json.Unmarshal(message, &e); err != nil {
			s.logger.Debug("dropping malformed event", "error", err)
			continue
		}
		s.dispatch(e)
	}
}
