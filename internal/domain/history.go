package domain

import "time"

// CorrectionRecord captures metadata about one triggered correction.
type CorrectionRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Mode       Mode      `json:"mode"`
	Target     Target    `json:"target"`
	Model      string    `json:"model"`
	Streamed   bool      `json:"streamed"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	InputLen   int       `json:"input_len"`
	OutputLen  int       `json:"output_len"`
	Fragments  int       `json:"fragments"`
	Input      string    `json:"input,omitempty"`
	Output     string    `json:"output,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}
