// Package main provides a mixer plugin for macOS.
// It reads and sets the output volume via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// actionHandler handles one action and returns the response data.
type actionHandler func(params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"volume-range": volumeRange,
	"volume-get":   volumeGet,
	"volume-set":   volumeSet,
}

// runScript runs one AppleScript statement. Tests replace it.
var runScript = runAppleScript

func main() {
	handle(os.Stdin, os.Stdout)
}

// handle serves a single request read from in.
func handle(in io.Reader, out io.Writer) {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		writeErrorResponse(out, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(out, fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		writeErrorResponse(out, fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(out, data)
}

func writeErrorResponse(out io.Writer, errMsg string) {
	json.NewEncoder(out).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

func writeSuccessResponse(out io.Writer, data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(out, fmt.Sprintf("failed to encode data: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(out).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns its output.
func runAppleScript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// volumeRange reports the AppleScript output volume scale.
func volumeRange(json.RawMessage) (any, error) {
	return map[string]float64{"min": 0, "max": 100}, nil
}

// volumeGet reads the current output volume.
func volumeGet(json.RawMessage) (any, error) {
	out, err := runScript(`output volume of (get volume settings)`)
	if err != nil {
		return nil, err
	}
	level, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return nil, fmt.Errorf("output device has no volume control: %q", out)
	}
	return map[string]float64{"level": level}, nil
}

// volumeSet sets the output volume to params.level.
func volumeSet(params json.RawMessage) (any, error) {
	var p struct {
		Level *float64 `json:"level"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Level == nil {
		return nil, fmt.Errorf("missing level")
	}

	level := int(math.Round(math.Max(0, math.Min(100, *p.Level))))
	_, err := runScript(fmt.Sprintf("set volume output volume %d", level))
	return nil, err
}
