// Package plugin runs external executables that provide mixer backends.
//
// A plugin lives in its own directory with a plugin.json manifest. It is
// invoked once per request with a JSON Request on stdin and must print a
// JSON Response on stdout.
package plugin

import "encoding/json"

// Mixer actions understood by mixer plugins.
const (
	ActionVolumeRange = "volume-range"
	ActionVolumeGet   = "volume-get"
	ActionVolumeSet   = "volume-set"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
