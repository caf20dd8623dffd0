package correction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/typecopilot/internal/application/correction"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/ai"
	"github.com/doeshing/typecopilot/internal/infrastructure/automation"
	"github.com/doeshing/typecopilot/internal/pkg/logger"
)

// screen plays the foreground application and the system clipboard together.
type screen struct {
	mu        sync.Mutex
	log       []string
	clipboard string
	selection string
}

func (s *screen) add(e string) {
	s.mu.Lock()
	s.log = append(s.log, e)
	s.mu.Unlock()
}

type screenKeyboard struct{ s *screen }

func (k screenKeyboard) Tap(combo domain.KeyCombo) error {
	switch combo.Key {
	case domain.KeyC:
		k.s.add("copy")
		k.s.clipboard = k.s.selection
	case domain.KeyV:
		k.s.add("paste")
	case domain.KeyHome, domain.KeyLeft:
		k.s.add("select")
	}
	return nil
}

type screenClipboard struct{ s *screen }

func (c screenClipboard) Read() (string, error) { return c.s.clipboard, nil }
func (c screenClipboard) Clear() error {
	c.s.clipboard = ""
	return nil
}
func (c screenClipboard) Write(text string) error {
	c.s.add("write " + text)
	c.s.clipboard = text
	return nil
}

func ollamaStub(t *testing.T, fragments []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		enc := json.NewEncoder(w)
		for i, f := range fragments {
			_ = enc.Encode(map[string]interface{}{"response": f, "done": i == len(fragments)-1})
		}
	}))
}

func newPipeline(t *testing.T, selection string, fragments ...string) (*correction.Service, *screen) {
	t.Helper()
	server := ollamaStub(t, fragments)
	t.Cleanup(server.Close)

	client, err := ai.NewClient(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	table, err := automation.TableFor("pc")
	if err != nil {
		t.Fatal(err)
	}
	scr := &screen{selection: selection}
	adapter := automation.NewAdapter(screenKeyboard{scr}, screenClipboard{scr}, table, automation.Delays{})
	adapter.Sleep = func(time.Duration) {}

	svc := &correction.Service{
		Session:    correction.NewSession("qwen2.5:1.5b", 5*time.Minute),
		Automation: adapter,
		Generator:  client,
		Logger:     logger.NewStd(false),
		Sleep:      func(time.Duration) {},
	}
	return svc, scr
}

// One chunk: exactly one copy, one clipboard write of the result and one paste.
func TestPipelineSingleChunkFix(t *testing.T) {
	svc, scr := newPipeline(t, "helo wrld\n", "Hello world\n")

	if _, err := svc.Run(context.Background(), domain.CorrectionRequest{Mode: domain.ModeFix, Target: domain.TargetSelection, Stream: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"copy", "write Hello world\n", "paste"}
	if diff := cmp.Diff(want, scr.log); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

// Three fragments: three writes and three pastes, each paste right after its write.
func TestPipelineStreamedFix(t *testing.T) {
	svc, scr := newPipeline(t, "helo wrld", "He", "llo ", "world")

	if _, err := svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []string{
		"select", "copy",
		"write He", "paste",
		"write llo ", "paste",
		"write world", "paste",
	}
	if diff := cmp.Diff(want, scr.log); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
