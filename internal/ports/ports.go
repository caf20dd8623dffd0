// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the correction core and external
// adapters (infrastructure). The core drives the foreground application only through
// Automation, talks to the generation service only through Generator and ModelLister,
// and never touches the clipboard, keyboard, or network directly.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Generator, Automation)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.typing-copilot/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ConfigSaver persists configuration changes such as the selected model.
type ConfigSaver interface {
	Save(context.Context, domain.Config) error
}

// Keyboard emits synthetic key combinations to the foreground application.
type Keyboard interface {
	Tap(combo domain.KeyCombo) error
}

// Clipboard reads and writes the system clipboard as text.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
	// Clear empties the clipboard so a later Read can tell "nothing copied" apart
	// from stale contents.
	Clear() error
}

// Automation captures text from and injects text into the foreground application.
// A single instance is shared by every correction.
type Automation interface {
	// SelectCurrentLine extends the selection from the cursor to the start of the line.
	SelectCurrentLine() error
	// CopySelection copies the selection and returns it; "" means nothing was selected.
	CopySelection() (string, error)
	// Inject writes text to the clipboard and pastes it.
	Inject(text string) error
	// PreserveClipboard snapshots the clipboard and returns a function restoring it.
	PreserveClipboard() (restore func())
}

// Generator executes generation requests against the service.
type Generator interface {
	GenerateSync(ctx context.Context, req domain.GenerationRequest) (string, error)
	GenerateStream(ctx context.Context, req domain.GenerationRequest) (FragmentStream, error)
}

// FragmentStream is a pull-based, finite, non-restartable sequence of response fragments.
//
//	for stream.Next() {
//		use(stream.Fragment())
//	}
//	if err := stream.Err(); err != nil { ... }
type FragmentStream interface {
	// Next suspends until the next fragment arrives and reports whether one did.
	Next() bool
	// Fragment returns the fragment made available by the last successful Next.
	Fragment() string
	// Err returns the error that ended the stream, if any.
	Err() error
	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// ModelLister reports the models installed on the service.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ServiceProbe checks the generation service is alive.
type ServiceProbe interface {
	Heartbeat(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// HistoryRepository stores correction records.
type HistoryRepository interface {
	Save(record domain.CorrectionRecord) error
	Records(limit int) ([]domain.CorrectionRecord, error)
	Prune(olderThan time.Time) (int, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// CorrectionMetrics records pipeline measurements.
type CorrectionMetrics interface {
	// CorrectionStarted marks a correction in flight until the returned func is called.
	CorrectionStarted(ctx context.Context) (done func())
	CorrectionFinished(ctx context.Context, req domain.CorrectionRequest, outcome string, generation time.Duration)
	FragmentApplied(ctx context.Context, mode domain.Mode)
}

// ProcessLock is a non-blocking lock shared by every typecopilot process.
type ProcessLock interface {
	// TryLock reports false without waiting when another holder has the lock.
	TryLock() (bool, error)
	Unlock() error
}

// HotkeyListener registers global key bindings and reports presses.
type HotkeyListener interface {
	// Listen blocks until ctx is done, calling handle once per key press.
	Listen(ctx context.Context, bindings []domain.Binding, handle func(domain.Action)) error
}

// Notifier shows a short message to the user outside the foreground application.
type Notifier interface {
	Notify(message, title string) error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
