// Package plugin discovers and runs announcer plugins, the external programs
// that voice or display workout feedback.
package plugin

import "encoding/json"

// Standard actions understood by the bundled plugins.
const (
	ActionSpeak  = "speak"
	ActionNotify = "notify"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the plugin declares action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action   string          `json:"action"`
	Exercise string          `json:"exercise,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout as JSON.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SpeakParams are the params of the speak action.
type SpeakParams struct {
	Text string `json:"text"`
	// Rate is relative to the voice's normal speed; 0 means 1.
	Rate float64 `json:"rate,omitempty"`
}

// NotifyParams are the params of the notify action.
type NotifyParams struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
