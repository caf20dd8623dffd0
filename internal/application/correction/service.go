// Package correction drives one end-to-end correction: capture, prompt
// construction, generation and injection back into the foreground application.
//
// Capture, network I/O and injection are strictly serialized within a correction,
// and a process-wide guard lets at most one correction own the clipboard and the
// synthetic input channel at a time. When a ProcessLock is set the same holds
// across processes, so a one-shot trigger cannot overlap the daemon. Overlapping
// triggers are rejected with domain.ErrBusy rather than queued.
package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// Options tunes how results are applied.
type Options struct {
	// InstructStreaming makes instruct actions inject fragments as they arrive.
	InstructStreaming bool
	// FirstFragmentDelay is waited once before the first streamed injection.
	FirstFragmentDelay time.Duration
	// RestoreClipboard puts the user's clipboard back after the correction.
	RestoreClipboard bool
	// StoreText keeps captured and generated text in history records.
	StoreText bool
}

// Service is the correction orchestrator.
type Service struct {
	Session    *Session
	Automation ports.Automation
	Generator  ports.Generator
	History    ports.HistoryRepository
	Metrics    ports.CorrectionMetrics
	Logger     ports.Logger
	// Lock, when set, is held for the whole correction.
	Lock    ports.ProcessLock
	Options Options

	// Sleep and Now default to the time package; tests replace them.
	Sleep func(time.Duration)
	Now   func() time.Time

	guardOnce sync.Once
	guard     *semaphore.Weighted
}

// Dispatch runs the correction bound to a hotkey action.
func (s *Service) Dispatch(ctx context.Context, action domain.Action) (domain.CorrectionResult, error) {
	req := domain.CorrectionRequest{Mode: action.Mode(), Target: action.Target()}
	req.Stream = req.Mode == domain.ModeFix || s.Options.InstructStreaming
	return s.Run(ctx, req)
}

// Run executes one correction. Every failure is logged here and returned only so
// callers can count it; the foreground document is left untouched unless
// injection had already started.
//
// Once started, a correction is not cancelled by ctx: it runs to completion or failure.
func (s *Service) Run(ctx context.Context, req domain.CorrectionRequest) (domain.CorrectionResult, error) {
	if s.Session == nil || s.Automation == nil || s.Generator == nil || s.Logger == nil {
		return domain.CorrectionResult{}, errors.New("correction.Service dependencies not satisfied")
	}
	if !s.tryAcquire() {
		return domain.CorrectionResult{}, s.reject(ctx, req, "in process")
	}
	defer s.guard.Release(1)

	if s.Lock != nil {
		held, err := s.Lock.TryLock()
		if err != nil {
			s.Logger.Error("correction lock unavailable", err, map[string]interface{}{"mode": req.Mode, "target": req.Target})
			return domain.CorrectionResult{}, fmt.Errorf("acquire correction lock: %w", err)
		}
		if !held {
			return domain.CorrectionResult{}, s.reject(ctx, req, "another process")
		}
		defer func() {
			if err := s.Lock.Unlock(); err != nil {
				s.Logger.Warn("correction lock release failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	ctx = context.WithoutCancel(ctx)
	result := domain.CorrectionResult{ID: uuid.NewString()}
	if s.Metrics != nil {
		done := s.Metrics.CorrectionStarted(ctx)
		defer done()
	}

	start := s.now()
	var generation time.Duration
	err := s.run(ctx, req, &result, &generation)
	result.Duration = s.now().Sub(start)

	s.finish(ctx, req, result, generation, err)
	return result, err
}

// reject reports a trigger that arrived while holder was running a correction.
func (s *Service) reject(ctx context.Context, req domain.CorrectionRequest, holder string) error {
	s.Logger.Warn("correction rejected", map[string]interface{}{
		"mode":   req.Mode,
		"target": req.Target,
		"reason": domain.ErrBusy.Error(),
		"holder": holder,
	})
	if s.Metrics != nil {
		s.Metrics.CorrectionFinished(ctx, req, domain.Outcome(domain.ErrBusy), 0)
	}
	return domain.ErrBusy
}

func (s *Service) run(ctx context.Context, req domain.CorrectionRequest, result *domain.CorrectionResult, generation *time.Duration) error {
	if s.Options.RestoreClipboard {
		restore := s.Automation.PreserveClipboard()
		defer restore()
	}

	s.transition(result.ID, domain.StateCapturing)
	text, err := s.capture(req.Target)
	if err != nil {
		s.transition(result.ID, domain.StateAborted)
		return err
	}
	result.Input = text

	prompt, err := s.Session.Prompt(req.Mode, text, s.now())
	if err != nil {
		s.transition(result.ID, domain.StateAborted)
		return fmt.Errorf("render prompt: %w", err)
	}
	genReq := s.Session.Request(prompt, req.Stream)
	result.Model = genReq.Model

	s.transition(result.ID, domain.StateRequesting)
	started := s.now()
	defer func() { *generation = s.now().Sub(started) }()

	if req.Stream {
		return s.applyStream(ctx, req, genReq, result)
	}
	return s.applySync(ctx, genReq, result)
}

func (s *Service) capture(target domain.Target) (string, error) {
	if target == domain.TargetLine {
		if err := s.Automation.SelectCurrentLine(); err != nil {
			return "", fmt.Errorf("select current line: %w", err)
		}
	}
	text, err := s.Automation.CopySelection()
	if err != nil {
		return "", fmt.Errorf("copy selection: %w", err)
	}
	if text == "" {
		return "", domain.ErrCaptureEmpty
	}
	return text, nil
}

// applyStream injects every non-empty fragment as soon as it arrives. Each paste
// carries only the new fragment: the first one replaces the captured selection and
// the following ones land at the caret left behind by the previous paste.
func (s *Service) applyStream(ctx context.Context, req domain.CorrectionRequest, genReq domain.GenerationRequest, result *domain.CorrectionResult) error {
	stream, err := s.Generator.GenerateStream(ctx, genReq)
	if err != nil {
		return err
	}
	defer stream.Close()

	var out strings.Builder
	defer func() { result.Output = out.String() }()

	for stream.Next() {
		fragment := stream.Fragment()
		if fragment == "" {
			continue
		}
		if result.Fragments == 0 {
			s.transition(result.ID, domain.StateApplying)
			s.sleep(s.Options.FirstFragmentDelay)
		}
		if err := s.Automation.Inject(fragment); err != nil {
			return fmt.Errorf("inject fragment %d: %w", result.Fragments+1, err)
		}
		out.WriteString(fragment)
		result.Fragments++
		if s.Metrics != nil {
			s.Metrics.FragmentApplied(ctx, req.Mode)
		}
	}
	return stream.Err()
}

func (s *Service) applySync(ctx context.Context, genReq domain.GenerationRequest, result *domain.CorrectionResult) error {
	text, err := s.Generator.GenerateSync(ctx, genReq)
	if err != nil {
		return err
	}
	result.Output = text
	if text == "" {
		s.Logger.Warn("empty response, nothing to apply", map[string]interface{}{"id": result.ID})
		return nil
	}

	s.transition(result.ID, domain.StateApplying)
	if err := s.Automation.Inject(text); err != nil {
		return fmt.Errorf("inject response: %w", err)
	}
	result.Fragments = 1
	return nil
}

func (s *Service) finish(ctx context.Context, req domain.CorrectionRequest, result domain.CorrectionResult, generation time.Duration, err error) {
	outcome := domain.Outcome(err)
	fields := map[string]interface{}{
		"id":          result.ID,
		"mode":        req.Mode,
		"target":      req.Target,
		"model":       result.Model,
		"streamed":    req.Stream,
		"fragments":   result.Fragments,
		"duration_ms": result.Duration.Milliseconds(),
		"outcome":     outcome,
	}

	switch {
	case err == nil:
		s.Logger.Info("correction applied", fields)
	case errors.Is(err, domain.ErrCaptureEmpty):
		s.Logger.Warn("No text selected", fields)
	default:
		s.Logger.Error("correction aborted", err, fields)
	}
	s.transition(result.ID, domain.StateIdle)

	if s.Metrics != nil {
		s.Metrics.CorrectionFinished(ctx, req, outcome, generation)
	}
	if s.History != nil {
		if herr := s.History.Save(s.record(req, result, outcome, err)); herr != nil {
			s.Logger.Warn("history save failed", map[string]interface{}{"id": result.ID, "error": herr.Error()})
		}
	}
}

func (s *Service) record(req domain.CorrectionRequest, result domain.CorrectionResult, outcome string, err error) domain.CorrectionRecord {
	rec := domain.CorrectionRecord{
		ID:         result.ID,
		Timestamp:  s.now(),
		Mode:       req.Mode,
		Target:     req.Target,
		Model:      result.Model,
		Streamed:   req.Stream,
		Outcome:    outcome,
		InputLen:   len(result.Input),
		OutputLen:  len(result.Output),
		Fragments:  result.Fragments,
		DurationMS: result.Duration.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if s.Options.StoreText {
		rec.Input = result.Input
		rec.Output = result.Output
	}
	return rec
}

func (s *Service) transition(id string, state domain.State) {
	s.Logger.Debug("correction state", map[string]interface{}{"id": id, "state": state})
}

func (s *Service) tryAcquire() bool {
	s.guardOnce.Do(func() { s.guard = semaphore.NewWeighted(1) })
	return s.guard.TryAcquire(1)
}

func (s *Service) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
