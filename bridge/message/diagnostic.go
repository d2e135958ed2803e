package message

import (
	"encoding/json"
	"fmt"
)

// DiagnosticSnapshot is the result of the page-introspection probe.
// Produced on demand, never persisted by the bridge itself.
type DiagnosticSnapshot struct {
	ReadyState  string   `json:"readyState"`
	Scripts     []string `json:"scripts"` // src URL or "[inline]"
	Stylesheets []string `json:"links"`   // href URL or "[inline]"
}

// Diagnostic is a snapshot annotated with the navigation event that
// triggered it.
type Diagnostic struct {
	SessionID string             `json:"session_id"`
	Context   string             `json:"context"` // finished | failed | provisional
	Snapshot  DiagnosticSnapshot `json:"snapshot"`
	Timestamp int64              `json:"timestamp"`
}

// ParseSnapshot decodes the probe result. A missing readyState is
// reported as "unknown".
func ParseSnapshot(raw []byte) (DiagnosticSnapshot, error) {
	var snap DiagnosticSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return DiagnosticSnapshot{}, fmt.Errorf("message: unexpected probe payload: %w", err)
	}
	if snap.ReadyState == "" {
		snap.ReadyState = "unknown"
	}
	return snap, nil
}
