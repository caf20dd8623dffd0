package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/typecopilot/internal/domain"
)

// stubService is a deterministic generation service. Streamed requests receive
// one NDJSON object per fragment; blocking requests receive the joined text.
type stubService struct {
	fragments []string
	trailing  []string // objects written after the done marker
	omitDone  bool

	mu       sync.Mutex
	requests []map[string]interface{}
}

func (s *stubService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, body)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		if stream, _ := body["stream"].(bool); !stream {
			_ = enc.Encode(map[string]interface{}{"model": body["model"], "response": strings.Join(s.fragments, ""), "done": true})
			return
		}
		for i, fragment := range s.fragments {
			done := i == len(s.fragments)-1 && !s.omitDone
			_ = enc.Encode(map[string]interface{}{"model": body["model"], "response": fragment, "done": done})
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		for _, extra := range s.trailing {
			_ = enc.Encode(map[string]interface{}{"model": body["model"], "response": extra, "done": false})
		}
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[{"name":"a"},{"name":"b"}]}`)
	})
	return mux
}

func (s *stubService) lastRequest() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func collect(t *testing.T, c *Client, req domain.GenerationRequest) ([]string, error) {
	t.Helper()
	stream, err := c.GenerateStream(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}
	defer stream.Close()
	var got []string
	for stream.Next() {
		got = append(got, stream.Fragment())
	}
	return got, stream.Err()
}

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{Model: "qwen2.5:1.5b", KeepAlive: 5 * time.Minute, Prompt: "fix: helo wrld"}
}

func TestStreamConcatenationMatchesSync(t *testing.T) {
	stub := &stubService{fragments: []string{"He", "llo ", "world"}}
	client := newTestClient(t, stub.handler(t))

	fragments, err := collect(t, client, testRequest())
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if diff := cmp.Diff([]string{"He", "llo ", "world"}, fragments); diff != "" {
		t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
	}

	full, err := client.GenerateSync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateSync() error = %v", err)
	}
	if joined := strings.Join(fragments, ""); joined != full {
		t.Fatalf("stream %q != sync %q", joined, full)
	}
}

func TestStreamStopsAtFirstDoneMarker(t *testing.T) {
	stub := &stubService{fragments: []string{"Hello world\n"}, trailing: []string{"ignored"}}
	client := newTestClient(t, stub.handler(t))

	fragments, err := collect(t, client, testRequest())
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if diff := cmp.Diff([]string{"Hello world\n"}, fragments); diff != "" {
		t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamWithoutDoneMarkerIsServiceError(t *testing.T) {
	stub := &stubService{fragments: []string{"partial"}, omitDone: true}
	client := newTestClient(t, stub.handler(t))

	fragments, err := collect(t, client, testRequest())
	if !errors.Is(err, domain.ErrServiceError) {
		t.Fatalf("expected ErrServiceError, got %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected the fragment before closure to be delivered, got %q", fragments)
	}
}

// stallingHandler sends one fragment and then holds the body open.
func stallingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": "par", "done": false})
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
}

func TestStalledStreamIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(stallingHandler())
	t.Cleanup(server.Close)

	t.Run("client timeout", func(t *testing.T) {
		client, err := NewClient(server.URL, 200*time.Millisecond)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		fragments, err := collect(t, client, testRequest())
		if !errors.Is(err, domain.ErrServiceUnavailable) {
			t.Fatalf("error = %v, want ErrServiceUnavailable", err)
		}
		if diff := cmp.Diff([]string{"par"}, fragments); diff != "" {
			t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("context deadline", func(t *testing.T) {
		client, err := NewClient(server.URL, 0)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		if _, err := client.GenerateSync(ctx, testRequest()); !errors.Is(err, domain.ErrServiceUnavailable) {
			t.Fatalf("sync error = %v, want ErrServiceUnavailable", err)
		}
	})
}

func TestRequestCarriesWireFields(t *testing.T) {
	stub := &stubService{fragments: []string{"ok"}}
	client := newTestClient(t, stub.handler(t))

	if _, err := client.GenerateSync(context.Background(), testRequest()); err != nil {
		t.Fatalf("GenerateSync() error = %v", err)
	}
	body := stub.lastRequest()
	if body["model"] != "qwen2.5:1.5b" {
		t.Errorf("model = %v", body["model"])
	}
	if body["prompt"] != "fix: helo wrld" {
		t.Errorf("prompt = %v", body["prompt"])
	}
	if body["stream"] != false {
		t.Errorf("stream = %v, want false", body["stream"])
	}
	if body["keep_alive"] != "5m0s" {
		t.Errorf("keep_alive = %v, want 5m0s", body["keep_alive"])
	}

	if _, err := collect(t, client, testRequest()); err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if body := stub.lastRequest(); body["stream"] != true {
		t.Errorf("stream = %v, want true", body["stream"])
	}
}

func TestZeroKeepAliveIsSent(t *testing.T) {
	stub := &stubService{fragments: []string{"ok"}}
	client := newTestClient(t, stub.handler(t))

	req := testRequest()
	req.KeepAlive = 0
	if _, err := client.GenerateSync(context.Background(), req); err != nil {
		t.Fatalf("GenerateSync() error = %v", err)
	}
	if got := stub.lastRequest()["keep_alive"]; got != "0s" {
		t.Fatalf("keep_alive = %v, want 0s", got)
	}
}

func TestServiceFailureStatusIsServiceError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"missing\" not found"}`)
	}))

	_, err := client.GenerateSync(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrServiceError) {
		t.Fatalf("sync: expected ErrServiceError, got %v", err)
	}
	_, err = collect(t, client, testRequest())
	if !errors.Is(err, domain.ErrServiceError) {
		t.Fatalf("stream: expected ErrServiceError, got %v", err)
	}
}

func TestMalformedPayloadIsServiceError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response": "He", "done": false}`)
		fmt.Fprintln(w, `not json at all`)
	}))

	_, err := collect(t, client, testRequest())
	if !errors.Is(err, domain.ErrServiceError) {
		t.Fatalf("expected ErrServiceError, got %v", err)
	}
}

func TestConnectionRefusedIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	host := server.URL
	server.Close()

	client, err := NewClient(host, time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.GenerateSync(context.Background(), testRequest()); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("sync: expected ErrServiceUnavailable, got %v", err)
	}
	if _, err := collect(t, client, testRequest()); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("stream: expected ErrServiceUnavailable, got %v", err)
	}
	if _, err := client.ListModels(context.Background()); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("list: expected ErrServiceUnavailable, got %v", err)
	}
}

func TestListModelsPreservesOrder(t *testing.T) {
	client := newTestClient(t, (&stubService{}).handler(t))

	names, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
}

func TestClosedStreamIsNotRestartable(t *testing.T) {
	stub := &stubService{fragments: []string{"a", "b", "c"}}
	client := newTestClient(t, stub.handler(t))

	stream, err := client.GenerateStream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}
	if !stream.Next() || stream.Fragment() != "a" {
		t.Fatalf("expected first fragment %q, got %q", "a", stream.Fragment())
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if stream.Next() {
		t.Fatal("Next() after Close() returned true")
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("Err() after Close() = %v", err)
	}
}

func TestNewClientRejectsInvalidHost(t *testing.T) {
	for _, host := range []string{"://bad", "ftp://localhost:11434", "http://"} {
		if _, err := NewClient(host, 0); !errors.Is(err, domain.ErrClientInit) {
			t.Errorf("NewClient(%q) error = %v, want ErrClientInit", host, err)
		}
	}
}
