package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/ytsubs/internal/shared"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestEventStream(t *testing.T) {
	t.Run("ChannelsUpdated", func(t *testing.T) {
		tests := []struct {
			event Event
			want  bool
		}{
			{event: Event{Destination: "broadcast", Source: "channel", Type: "channelsUpdated"}, want: true},
			{event: Event{Destination: "broadcast", Source: "download", Type: "channelsUpdated"}, want: false},
			{event: Event{Destination: "user", Source: "channel", Type: "channelsUpdated"}, want: false},
			{event: Event{Destination: "broadcast", Source: "channel", Type: "progress"}, want: false},
		}
		for _, tt := range tests {
			if got := ChannelsUpdated(tt.event); got != tt.want {
				t.Errorf("ChannelsUpdated(%+v) = %v, want %v", tt.event, got, tt.want)
			}
		}
	})

	t.Run("reconnectDelay", func(t *testing.T) {
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second}
		for retries, w := range want {
			if got := reconnectDelay(retries); got != w {
				t.Errorf("reconnectDelay(%d) = %v, want %v", retries, got, w)
			}
		}
		if got := reconnectDelay(100); got != maxReconnectDelay {
			t.Errorf("reconnectDelay(100) = %v", got)
		}
	})

	t.Run("Dispatches Matching Events", func(t *testing.T) {
		upgrader := websocket.Upgrader{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-access-token") != "tok" {
				t.Errorf("expected session header on upgrade")
			}
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				t.Errorf("upgrade failed: %v", err)
				return
			}
			defer ws.Close()

			ws.WriteMessage(websocket.TextMessage, []byte(`not json`))
			ws.WriteJSON(Event{Destination: "broadcast", Source: "download", Type: "progress"})
			ws.WriteJSON(Event{Destination: "broadcast", Source: "channel", Type: "channelsUpdated"})

			// hold the connection until the client hangs up
			ws.ReadMessage()
		}))
		defer server.Close()

		stream := NewEventStream(wsURL(server.URL), "tok", nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		got := make(chan Event, 4)
		var all atomic.Int32
		stream.Subscribe(ChannelsUpdated, func(e Event) { got <- e })
		stream.Subscribe(nil, func(Event) { all.Add(1) })

		done := make(chan error, 1)
		go func() { done <- stream.Run(ctx) }()

		select {
		case e := <-got:
			if e.Type != "channelsUpdated" {
				t.Errorf("unexpected event %+v", e)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for channelsUpdated")
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not stop after cancel")
		}

		if n := all.Load(); n != 2 {
			t.Errorf("expected catch-all subscriber to see 2 events, got %d", n)
		}
	})

	t.Run("Reconnects After Drop", func(t *testing.T) {
		var connections atomic.Int32
		upgrader := websocket.Upgrader{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			n := connections.Add(1)
			ws.WriteJSON(Event{Destination: "broadcast", Source: "channel", Type: "channelsUpdated"})
			if n == 1 {
				ws.Close()
				return
			}
			ws.ReadMessage()
			ws.Close()
		}))
		defer server.Close()

		stream := NewEventStream(wsURL(server.URL), "", nil)
		stream.backoff = func(int) time.Duration { return time.Millisecond }

		var seen atomic.Int32
		reached := make(chan struct{})
		stream.Subscribe(ChannelsUpdated, func(Event) {
			if seen.Add(1) == 2 {
				close(reached)
			}
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go stream.Run(ctx)

		select {
		case <-reached:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected two deliveries across reconnects, got %d", seen.Load())
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		stream := NewEventStream("ws://unused", "", shared.NewLogger(nil))
		var calls int
		unsubscribe := stream.Subscribe(nil, func(Event) { calls++ })

		stream.dispatch(Event{Type: "a"})
		unsubscribe()
		stream.dispatch(Event{Type: "b"})

		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("Dial Failure Retries Until Cancelled", func(t *testing.T) {
		stream := NewEventStream("ws://127.0.0.1:1", "", nil)
		var attempts atomic.Int32
		stream.backoff = func(int) time.Duration {
			attempts.Add(1)
			return time.Millisecond
		}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := stream.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if attempts.Load() == 0 {
			t.Error("expected at least one retry")
		}
	})
}
