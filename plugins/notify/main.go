// Package main provides the desktop notification announcer plugin.
// It posts feedback via AppleScript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Exercise string          `json:"exercise"`
	Config   json.RawMessage `json:"config"`
	Params   json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NotifyParams defines parameters for the notify action.
type NotifyParams struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "notify":
		if err := handleNotify(req.Exercise, req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleNotify(exercise string, params json.RawMessage) error {
	var p NotifyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	if p.Title == "" {
		p.Title = "Form coach"
	}
	if exercise != "" {
		p.Title = fmt.Sprintf("%s: %s", p.Title, exercise)
	}

	if runtime.GOOS == "darwin" {
		return runAppleScript(buildNotificationScript(p.Title, p.Message))
	}
	return run("notify-send", p.Title, p.Message)
}

// buildNotificationScript generates an AppleScript that posts a notification.
func buildNotificationScript(title, message string) string {
	return fmt.Sprintf(`display notification "%s" with title "%s"`, escape(message), escape(title))
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
