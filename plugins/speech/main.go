// Package main provides the speech announcer plugin.
// It reads feedback text aloud with say on macOS and espeak elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
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

// SpeakParams defines parameters for the speak action.
type SpeakParams struct {
	Text string  `json:"text"`
	Rate float64 `json:"rate"`
}

const (
	defaultRate = 1.1
	// Words per minute of a normal speaking voice.
	sayBaseWPM    = 175
	espeakBaseWPM = 160
)

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "speak":
		if err := handleSpeak(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleSpeak(params json.RawMessage) error {
	var p SpeakParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	// Multi-line feedback is voiced as one sentence per line.
	text := strings.Join(strings.Fields(strings.ReplaceAll(p.Text, "\n", ". ")), " ")
	if text == "" {
		return fmt.Errorf("text is required")
	}
	if p.Rate <= 0 {
		p.Rate = defaultRate
	}

	name, args := speechCommand(runtime.GOOS, text, p.Rate)
	return run(name, args...)
}

// speechCommand returns the text-to-speech command for goos.
func speechCommand(goos, text string, rate float64) (string, []string) {
	if goos == "darwin" {
		return "say", []string{"-r", wpm(sayBaseWPM, rate), text}
	}
	return "espeak", []string{"-s", wpm(espeakBaseWPM, rate), text}
}

func wpm(base int, rate float64) string {
	return strconv.Itoa(int(float64(base) * rate))
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// run executes a command and returns its output on failure.
func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
