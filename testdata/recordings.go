// Package testdata embeds pose recordings shared by tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/pose"
)

//go:embed recordings/*.jsonl
var recordingsFS embed.FS

// Recording names.
const (
	// CleanSquat holds three good-form reps with two empty frames
	// early in the first descent.
	CleanSquat = "squat_clean.jsonl"
	// ValgusSquat holds two reps with the left knee caving inward.
	ValgusSquat = "squat_valgus.jsonl"
)

// Recording returns the raw JSON-lines bytes of a recording.
func Recording(name string) ([]byte, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return data, nil
}

// LoadRecording decodes a recording into frames.
func LoadRecording(name string) ([]pose.Frame, error) {
	data, err := Recording(name)
	if err != nil {
		return nil, err
	}
	frames, err := pose.ReadJSONLines(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}
	return frames, nil
}
