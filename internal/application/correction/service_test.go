package correction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/lock"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	auto    *fakeAutomation
	gen     *fakeGenerator
	history *stubHistory
	metrics *stubMetrics
	logger  *stubLogger
	slept   []time.Duration
}

func newHarness(selection string, fragments ...string) *harness {
	h := &harness{
		auto:    &fakeAutomation{selection: selection},
		gen:     &fakeGenerator{fragments: fragments},
		history: &stubHistory{},
		metrics: &stubMetrics{},
		logger:  &stubLogger{},
	}
	h.svc = &Service{
		Session:    NewSession("qwen2.5:1.5b", 5*time.Minute),
		Automation: h.auto,
		Generator:  h.gen,
		History:    h.history,
		Metrics:    h.metrics,
		Logger:     h.logger,
		Options:    Options{FirstFragmentDelay: 500 * time.Millisecond},
		Now:        func() time.Time { return fixedNow },
	}
	h.svc.Sleep = func(d time.Duration) { h.slept = append(h.slept, d) }
	return h
}

func TestFixSingleChunk(t *testing.T) {
	h := newHarness("helo wrld\n", "Hello world\n")

	result, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"select", "copy", "write Hello world\n", "paste"}
	if diff := cmp.Diff(want, h.auto.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if result.Output != "Hello world\n" || result.Fragments != 1 {
		t.Fatalf("result = %+v", result)
	}
	reqs := h.gen.Requests()
	if len(reqs) != 1 || !reqs[0].Stream {
		t.Fatalf("expected one streamed request, got %+v", reqs)
	}
	if !strings.Contains(reqs[0].Prompt, "helo wrld\n") {
		t.Fatalf("prompt does not carry captured text: %q", reqs[0].Prompt)
	}
}

func TestFixStreamsEachFragment(t *testing.T) {
	h := newHarness("helo wrld", "He", "llo ", "world")

	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{
		"select", "copy",
		"write He", "paste",
		"write llo ", "paste",
		"write world", "paste",
	}
	if diff := cmp.Diff(want, h.auto.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{500 * time.Millisecond}, h.slept); diff != "" {
		t.Fatalf("first fragment delay mismatch (-want +got):\n%s", diff)
	}
	if h.metrics.fragments != 3 {
		t.Fatalf("fragment metric = %d, want 3", h.metrics.fragments)
	}
}

func TestEmptyCaptureAbortsSilently(t *testing.T) {
	for _, action := range domain.CorrectionActions {
		t.Run(string(action), func(t *testing.T) {
			h := newHarness("", "never used")

			_, err := h.svc.Dispatch(context.Background(), action)
			if !errors.Is(err, domain.ErrCaptureEmpty) {
				t.Fatalf("error = %v, want ErrCaptureEmpty", err)
			}
			if n := len(h.gen.Requests()); n != 0 {
				t.Fatalf("generation requests = %d, want 0", n)
			}
			if n := h.auto.injections(); n != 0 {
				t.Fatalf("injections = %d, want 0", n)
			}
			if len(h.logger.warns) != 1 || h.logger.warns[0] != "No text selected" {
				t.Fatalf("warnings = %v", h.logger.warns)
			}
			if len(h.logger.errs) != 0 {
				t.Fatalf("unexpected error logs: %v", h.logger.errs)
			}
		})
	}
}

func TestInstructSelectionSyncInjectsOnce(t *testing.T) {
	h := newHarness("write a haiku about go", "Gophers ", "dig ", "tunnels")

	result, err := h.svc.Dispatch(context.Background(), domain.ActionInstructSelection)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []string{"copy", "write Gophers dig tunnels", "paste"}
	if diff := cmp.Diff(want, h.auto.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if len(h.slept) != 0 {
		t.Fatalf("sync apply should not wait for a first fragment, slept %v", h.slept)
	}
	req := h.gen.Requests()[0]
	if req.Stream {
		t.Fatal("instruct should use a blocking request by default")
	}
	if !strings.Contains(req.Prompt, "Current date: 2026-10-18") {
		t.Fatalf("instruct prompt missing date: %q", req.Prompt)
	}
	if result.Fragments != 1 {
		t.Fatalf("fragments = %d, want 1", result.Fragments)
	}
}

func TestInstructStreamingOption(t *testing.T) {
	h := newHarness("list three colors", "red ", "green ", "blue")
	h.svc.Options.InstructStreaming = true

	if _, err := h.svc.Dispatch(context.Background(), domain.ActionInstructLine); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if n := h.auto.injections(); n != 3 {
		t.Fatalf("injections = %d, want 3", n)
	}
	if !h.gen.Requests()[0].Stream {
		t.Fatal("expected streamed request")
	}
}

func TestEmptyFragmentsAreSkipped(t *testing.T) {
	h := newHarness("x", "", "Hi", "")

	result, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Fragments != 1 || h.auto.injections() != 1 {
		t.Fatalf("fragments = %d, injections = %d, want 1 each", result.Fragments, h.auto.injections())
	}
}

func TestServiceErrorMidStreamKeepsPartialReplacement(t *testing.T) {
	h := newHarness("helo", "Hel", "lo")
	h.gen.err = &domain.GenerationError{Kind: domain.ErrServiceError, Op: "generate stream", Err: errBoom}

	result, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if !errors.Is(err, domain.ErrServiceError) {
		t.Fatalf("error = %v, want ErrServiceError", err)
	}
	if result.Fragments != 2 {
		t.Fatalf("fragments applied before failure = %d, want 2", result.Fragments)
	}
	if len(h.logger.errs) != 1 {
		t.Fatalf("error logs = %v, want exactly one", h.logger.errs)
	}
	if diff := cmp.Diff([]string{"service_error"}, h.metrics.outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceUnavailableSync(t *testing.T) {
	h := newHarness("question")
	h.gen.err = &domain.GenerationError{Kind: domain.ErrServiceUnavailable, Op: "generate", Err: errBoom}

	_, err := h.svc.Dispatch(context.Background(), domain.ActionInstructLine)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("error = %v, want ErrServiceUnavailable", err)
	}
	if n := h.auto.injections(); n != 0 {
		t.Fatalf("injections = %d, want 0", n)
	}
	rec := h.history.records[0]
	if rec.Outcome != "service_unavailable" || rec.Error == "" {
		t.Fatalf("history record = %+v", rec)
	}
}

func TestInjectFailureAborts(t *testing.T) {
	h := newHarness("helo", "Hello", " there")
	h.auto.injectErr = errBoom

	result, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want inject failure", err)
	}
	if result.Fragments != 0 {
		t.Fatalf("fragments = %d, want 0", result.Fragments)
	}
}

func TestModelChangeDoesNotAffectIssuedRequest(t *testing.T) {
	h := newHarness("helo", "Hel", "lo")
	h.gen.onNext = func(i int) {
		if i == 0 {
			if err := h.svc.Session.SetModel("llama3.2:1b"); err != nil {
				t.Errorf("SetModel() error = %v", err)
			}
		}
	}

	first, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if err != nil {
		t.Fatalf("first Dispatch() error = %v", err)
	}
	h.gen.onNext = nil
	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatalf("second Dispatch() error = %v", err)
	}

	reqs := h.gen.Requests()
	if reqs[0].Model != "qwen2.5:1.5b" || first.Model != "qwen2.5:1.5b" {
		t.Fatalf("in-flight request model changed: %q / %q", reqs[0].Model, first.Model)
	}
	if reqs[1].Model != "llama3.2:1b" {
		t.Fatalf("next request model = %q, want llama3.2:1b", reqs[1].Model)
	}
}

func TestOverlappingTriggerIsRejected(t *testing.T) {
	h := newHarness("question", "answer")
	h.gen.block = make(chan struct{})
	h.gen.started = make(chan struct{}, 1)

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = h.svc.Dispatch(context.Background(), domain.ActionInstructSelection)
	}()
	<-h.gen.started

	_, err := h.svc.Dispatch(context.Background(), domain.ActionInstructSelection)
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("overlapping Dispatch() error = %v, want ErrBusy", err)
	}

	close(h.gen.block)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first Dispatch() error = %v", firstErr)
	}
	if n := len(h.gen.Requests()); n != 1 {
		t.Fatalf("generation requests = %d, want 1", n)
	}
	if h.metrics.active != 0 {
		t.Fatalf("active corrections = %d after completion", h.metrics.active)
	}
	if diff := cmp.Diff([]string{"busy", "applied"}, h.metrics.outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}

	// The guard is released once the first correction finishes.
	if _, err := h.svc.Dispatch(context.Background(), domain.ActionInstructSelection); err != nil {
		t.Fatalf("Dispatch() after release error = %v", err)
	}
}

func TestCancelledContextDoesNotInterrupt(t *testing.T) {
	h := newHarness("helo", "Hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.svc.Dispatch(ctx, domain.ActionFixLine); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if h.auto.injections() != 1 {
		t.Fatal("expected the correction to run to completion")
	}
}

func TestHistoryRecordStoresTextOnlyWhenEnabled(t *testing.T) {
	h := newHarness("helo", "Hello")
	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatal(err)
	}
	rec := h.history.records[0]
	if rec.Input != "" || rec.Output != "" {
		t.Fatalf("text stored without store_text: %+v", rec)
	}
	if rec.InputLen != 4 || rec.OutputLen != 5 || rec.Outcome != "applied" || rec.Model != "qwen2.5:1.5b" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ID == "" || !rec.Timestamp.Equal(fixedNow) {
		t.Fatalf("record identity = %q %v", rec.ID, rec.Timestamp)
	}

	h.svc.Options.StoreText = true
	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatal(err)
	}
	rec = h.history.records[1]
	if rec.Input != "helo" || rec.Output != "Hello" {
		t.Fatalf("text not stored: %+v", rec)
	}
}

func TestRestoreClipboard(t *testing.T) {
	h := newHarness("helo", "Hello")
	h.svc.Options.RestoreClipboard = true

	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatal(err)
	}
	events := h.auto.Events()
	if events[0] != "snapshot" || events[len(events)-1] != "restore" {
		t.Fatalf("events = %v, want snapshot first and restore last", events)
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	svc := &Service{}
	if _, err := svc.Run(context.Background(), domain.CorrectionRequest{Mode: domain.ModeFix}); err == nil {
		t.Fatal("expected error for unwired service")
	}
}

func TestFailedCaptureAndRenderAbortAlike(t *testing.T) {
	want := []domain.State{domain.StateCapturing, domain.StateAborted, domain.StateIdle}

	h := newHarness("")
	if _, err := h.svc.Dispatch(context.Background(), domain.ActionInstructSelection); !errors.Is(err, domain.ErrCaptureEmpty) {
		t.Fatalf("empty capture error = %v", err)
	}
	if diff := cmp.Diff(want, h.logger.states); diff != "" {
		t.Fatalf("capture failure states (-want +got):\n%s", diff)
	}

	h = newHarness("some text", "never used")
	req := domain.CorrectionRequest{Mode: domain.Mode("poem"), Target: domain.TargetSelection}
	if _, err := h.svc.Run(context.Background(), req); err == nil {
		t.Fatal("unknown mode rendered a prompt")
	}
	if diff := cmp.Diff(want, h.logger.states); diff != "" {
		t.Fatalf("render failure states (-want +got):\n%s", diff)
	}
	if n := len(h.gen.Requests()); n != 0 {
		t.Fatalf("generation requests = %d, want 0", n)
	}
}

func TestLockSharedAcrossServices(t *testing.T) {
	dir := t.TempDir()
	daemon := newHarness("question", "answer")
	daemon.svc.Lock = lock.InDir(dir)
	daemon.gen.block = make(chan struct{})
	daemon.gen.started = make(chan struct{}, 1)

	trigger := newHarness("other text", "other answer")
	trigger.svc.Lock = lock.InDir(dir)

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = daemon.svc.Dispatch(context.Background(), domain.ActionInstructSelection)
	}()
	<-daemon.gen.started

	_, err := trigger.svc.Dispatch(context.Background(), domain.ActionFixLine)
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second service error = %v, want ErrBusy", err)
	}
	if events := trigger.auto.Events(); len(events) != 0 {
		t.Fatalf("rejected service touched the clipboard: %v", events)
	}

	close(daemon.gen.block)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first Dispatch() error = %v", firstErr)
	}

	if _, err := trigger.svc.Dispatch(context.Background(), domain.ActionFixLine); err != nil {
		t.Fatalf("Dispatch() after release error = %v", err)
	}
}

type failingLock struct{}

func (failingLock) TryLock() (bool, error) { return false, errBoom }
func (failingLock) Unlock() error          { return nil }

func TestLockFailureRunsNothing(t *testing.T) {
	h := newHarness("text", "never used")
	h.svc.Lock = failingLock{}

	if _, err := h.svc.Dispatch(context.Background(), domain.ActionFixLine); !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want lock failure", err)
	}
	if events := h.auto.Events(); len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
	if len(h.logger.errs) != 1 {
		t.Fatalf("error logs = %v, want one", h.logger.errs)
	}
}
