package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
	// CorrectionLockFileName is held by whichever process is running a correction
	CorrectionLockFileName = "correction.lock"
)

// Generation service defaults
const (
	// DefaultServiceHost is the local generation service address
	DefaultServiceHost = "http://localhost:11434"
	// DefaultModel is the model used until another one is selected
	DefaultModel = "qwen2.5:1.5b"
	// DefaultKeepAlive is how long the service keeps the model loaded between requests
	DefaultKeepAlive = 5 * time.Minute
	// DefaultModelTestTimeout bounds doctor and preview probes
	DefaultModelTestTimeout = 30 * time.Second
)

// Automation settle delays
const (
	DefaultSelectSettle       = 100 * time.Millisecond
	DefaultCopySettle         = 100 * time.Millisecond
	DefaultInjectSettle       = 100 * time.Millisecond
	DefaultPasteSettle        = 10 * time.Millisecond
	DefaultFirstFragmentDelay = 500 * time.Millisecond
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
