package models

// Event type discriminators carried in the eventType field.
const (
	EventCallGenerated = "voice.call.generated"
	EventCallFailed    = "voice.call.failed"
)

// CallGenerated is published once a run has produced its audio.
type CallGenerated struct {
	EventType       string   `json:"eventType"`
	RunID           string   `json:"runId"`
	ContactName     string   `json:"contactName"`
	Company         string   `json:"company"`
	Language        Language `json:"language"`
	AutoDetected    bool     `json:"autoDetected"`
	Provider        string   `json:"provider"`
	Model           string   `json:"model,omitempty"`
	ScriptChars     int      `json:"scriptChars"`
	AudioBytes      int      `json:"audioBytes"`
	DurationSeconds float64  `json:"durationSeconds"`
	Timestamp       int64    `json:"timestamp"`
}

// CallFailed is published when a fatal stage ends a run.
type CallFailed struct {
	EventType   string `json:"eventType"`
	RunID       string `json:"runId"`
	ContactName string `json:"contactName"`
	Company     string `json:"company"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
	Timestamp   int64  `json:"timestamp"`
}
