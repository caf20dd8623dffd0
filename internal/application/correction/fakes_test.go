package correction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// fakeAutomation records every gesture in order.
type fakeAutomation struct {
	mu        sync.Mutex
	events    []string
	selection string
	injectErr error
	restored  int
}

func (a *fakeAutomation) record(e string) {
	a.mu.Lock()
	a.events = append(a.events, e)
	a.mu.Unlock()
}

func (a *fakeAutomation) SelectCurrentLine() error {
	a.record("select")
	return nil
}

func (a *fakeAutomation) CopySelection() (string, error) {
	a.record("copy")
	return a.selection, nil
}

func (a *fakeAutomation) Inject(text string) error {
	if a.injectErr != nil {
		return a.injectErr
	}
	a.record("write " + text)
	a.record("paste")
	return nil
}

func (a *fakeAutomation) PreserveClipboard() func() {
	a.record("snapshot")
	return func() {
		a.restored++
		a.record("restore")
	}
}

func (a *fakeAutomation) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

func (a *fakeAutomation) injections() int {
	n := 0
	for _, e := range a.Events() {
		if e == "paste" {
			n++
		}
	}
	return n
}

// fakeGenerator replays fixed fragments and records the requests it receives.
type fakeGenerator struct {
	mu        sync.Mutex
	requests  []domain.GenerationRequest
	fragments []string
	err       error // returned after all fragments
	// onNext runs before every fragment is handed out, e.g. to block or mutate state.
	onNext func(i int)
	// block, when set, holds GenerateSync until closed.
	block   chan struct{}
	started chan struct{}
}

func (g *fakeGenerator) record(req domain.GenerationRequest) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.started != nil {
		g.started <- struct{}{}
	}
}

func (g *fakeGenerator) Requests() []domain.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.GenerationRequest(nil), g.requests...)
}

func (g *fakeGenerator) GenerateSync(_ context.Context, req domain.GenerationRequest) (string, error) {
	g.record(req)
	if g.block != nil {
		<-g.block
	}
	if g.err != nil {
		return "", g.err
	}
	out := ""
	for _, f := range g.fragments {
		out += f
	}
	return out, nil
}

func (g *fakeGenerator) GenerateStream(_ context.Context, req domain.GenerationRequest) (ports.FragmentStream, error) {
	g.record(req)
	return &sliceStream{gen: g, idx: -1}, nil
}

type sliceStream struct {
	gen    *fakeGenerator
	idx    int
	err    error
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}
	s.idx++
	if s.idx >= len(s.gen.fragments) {
		s.err = s.gen.err
		return false
	}
	if s.gen.onNext != nil {
		s.gen.onNext(s.idx)
	}
	return true
}

func (s *sliceStream) Fragment() string { return s.gen.fragments[s.idx] }
func (s *sliceStream) Err() error       { return s.err }
func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

type stubHistory struct {
	mu      sync.Mutex
	records []domain.CorrectionRecord
}

func (h *stubHistory) Save(r domain.CorrectionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *stubHistory) Records(int) ([]domain.CorrectionRecord, error) { return h.records, nil }
func (h *stubHistory) Prune(time.Time) (int, error)                   { return 0, nil }
func (h *stubHistory) Clear() error                                   { return nil }
func (h *stubHistory) ExportJSON(string) error                        { return nil }
func (h *stubHistory) Path() string                                   { return "" }

type stubMetrics struct {
	mu        sync.Mutex
	active    int
	outcomes  []string
	fragments int
}

func (m *stubMetrics) CorrectionStarted(context.Context) func() {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}
}

func (m *stubMetrics) CorrectionFinished(_ context.Context, _ domain.CorrectionRequest, outcome string, _ time.Duration) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func (m *stubMetrics) FragmentApplied(context.Context, domain.Mode) {
	m.mu.Lock()
	m.fragments++
	m.mu.Unlock()
}

type stubLogger struct {
	mu     sync.Mutex
	warns  []string
	errs   []string
	states []domain.State
}

func (l *stubLogger) Debug(msg string, fields map[string]interface{}) {
	if state, ok := fields["state"].(domain.State); ok {
		l.mu.Lock()
		l.states = append(l.states, state)
		l.mu.Unlock()
	}
}
func (l *stubLogger) Info(string, map[string]interface{}) {}
func (l *stubLogger) Warn(msg string, _ map[string]interface{}) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *stubLogger) Error(msg string, _ error, _ map[string]interface{}) {
	l.mu.Lock()
	l.errs = append(l.errs, msg)
	l.mu.Unlock()
}

var errBoom = errors.New("boom")
