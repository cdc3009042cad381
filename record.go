package vestig

import (
	"encoding/json"
	"time"
)

// LogRecord is the immutable unit delivered to transports. Field
// names match the spec's default JSON wire shape: {timestamp, level,
// message, runtime, namespace?, context?, metadata?, error?}.
type LogRecord struct {
	Timestamp string
	Level     LogLevel
	Message   string
	Runtime   string
	Namespace string
	Context   map[string]any
	Metadata  map[string]any
	Error     *SerializedError
}

// logRecordWire is LogRecord's on-the-wire shape: level is rendered as
// its name ("info", "warn", ...) rather than its ordinal.
type logRecordWire struct {
	Timestamp string           `json:"timestamp"`
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Runtime   string           `json:"runtime"`
	Namespace string           `json:"namespace,omitempty"`
	Context   map[string]any   `json:"context,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	Error     *SerializedError `json:"error,omitempty"`
}

func (r LogRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(logRecordWire{
		Timestamp: r.Timestamp,
		Level:     levelName(r.Level),
		Message:   r.Message,
		Runtime:   r.Runtime,
		Namespace: r.Namespace,
		Context:   r.Context,
		Metadata:  r.Metadata,
		Error:     r.Error,
	})
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
