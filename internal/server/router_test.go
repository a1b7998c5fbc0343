package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestBasicRouter(t *testing.T) {
	ok := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}
	}

	t.Run("dispatches by method", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/items", ok("list"))
		r.HandleFunc(http.MethodPost, "/items", ok("create"))

		for method, want := range map[string]string{http.MethodGet: "list", http.MethodPost: "create"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/items", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", method, rec.Code)
			}
			if rec.Body.String() != want {
				t.Errorf("%s: expected %q, got %q", method, want, rec.Body.String())
			}
		}
	})

	t.Run("unregistered method gets 405 with Allow", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodPost, "/items", ok("create"))
		r.HandleFunc("get", "/items", ok("list"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != "GET, POST" {
			t.Errorf("expected Allow %q, got %q", "GET, POST", got)
		}
		if !strings.Contains(rec.Body.String(), "Method not allowed") {
			t.Errorf("expected JSON error body, got %q", rec.Body.String())
		}
	})

	t.Run("HEAD falls back to GET", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/health", ok("ok"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("middleware runs in the order added", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(tag("first"), tag("second"))
		r.HandleFunc(http.MethodGet, "/", ok(""))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})

	t.Run("custom handler owns its routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(&stubHandler{routes: []string{"/a", "/b/"}})

		for _, path := range []string{"/a", "/b/c"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, path, nil))
			if rec.Code != http.StatusTeapot {
				t.Errorf("%s: expected 418, got %d", path, rec.Code)
			}
		}
	})
}

type stubHandler struct{ routes []string }

func (s *stubHandler) Routes() []string { return s.routes }

func (s *stubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)

		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, "done")
		}))

		t.Run("generates an ID", func(t *testing.T) {
			buf.Reset()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue/add", nil))

			id := rec.Header().Get(RequestIDHeader)
			if id == "" {
				t.Fatal("expected a request ID header")
			}
			if !strings.Contains(buf.String(), id) {
				t.Errorf("expected log line to carry %s, got %q", id, buf.String())
			}
			if !strings.Contains(buf.String(), "status=201") {
				t.Errorf("expected recorded status in log, got %q", buf.String())
			}
		})

		t.Run("keeps a caller ID", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/queue", nil)
			req.Header.Set(RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
				t.Errorf("expected abc-123, got %q", got)
			}
		})
	})

	t.Run("Recoverer", func(t *testing.T) {
		h := Recoverer(log.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"error"`) {
			t.Errorf("expected error body, got %q", rec.Body.String())
		}
	})
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	r := NewBasicRouter()
	r.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, r, log.New(io.Discard), ready) }()
	<-ready

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get("http://" + addr + "/ping")
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
