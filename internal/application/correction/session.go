package correction

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
)

// Session holds the active model and the prompt templates.
//
// The model is the only mutable field and changes only through SetModel. Requests
// copy it when they are built, so a change never reaches a request already issued.
// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	model     string
	keepAlive time.Duration
	templates Templates
}

// NewSession creates a session with the given starting model. A zero keepAlive
// asks the service to unload the model after each request; a negative one
// falls back to the default.
func NewSession(model string, keepAlive time.Duration) *Session {
	if keepAlive < 0 {
		keepAlive = domain.DefaultKeepAlive
	}
	if strings.TrimSpace(model) == "" {
		model = domain.DefaultModel
	}
	return &Session{
		model:     model,
		keepAlive: keepAlive,
		templates: DefaultTemplates(),
	}
}

// Model returns the active model identifier.
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel selects the model used by subsequently issued requests.
func (s *Session) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	s.mu.Lock()
	s.model = name
	s.mu.Unlock()
	return nil
}

// Templates returns the session's prompt templates.
func (s *Session) Templates() Templates {
	return s.templates
}

// Request builds a generation request bound to the model active right now.
func (s *Session) Request(prompt string, stream bool) domain.GenerationRequest {
	return domain.GenerationRequest{
		Model:     s.Model(),
		KeepAlive: s.keepAlive,
		Stream:    stream,
		Prompt:    prompt,
	}
}

// Prompt renders the template for mode around the captured text.
func (s *Session) Prompt(mode domain.Mode, text string, now time.Time) (string, error) {
	switch mode {
	case domain.ModeFix:
		return s.templates.RenderFix(text)
	case domain.ModeInstruct:
		return s.templates.RenderInstruct(text, now)
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}
