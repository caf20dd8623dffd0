package commands

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// DefaultHistoryLimit is the default number of history entries listed
	DefaultHistoryLimit = 20
	// MaxHistoryAnalysisRecords bounds the records read by history stats
	MaxHistoryAnalysisRecords = 1000
	// TopStatisticsLimit bounds each ranking printed by history stats
	TopStatisticsLimit = 5
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrRegistryUnavailable      = "model registry unavailable"
	ErrKeyRequired              = "--key is required"
	ErrInvalidRetainDays        = "--days must be > 0"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgNoModelsInstalled        = "No models installed. Pull one with: ollama pull <name>"
	MsgCancelled                = "Cancelled."
)

// AnnotationSkipContainer marks commands that run without loading configuration.
const AnnotationSkipContainer = "typecopilot/skip-container"
