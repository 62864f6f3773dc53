package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a plugin runs past the executor timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs plugins with a timeout.
type Executor struct {
	timeoutMs int
}

// NewExecutor creates a new Executor with the specified timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{
		timeoutMs: timeoutMs,
	}
}

// Execute runs a plugin with the given request and returns the response.
// The request is written to the plugin's stdin as JSON and its stdout is
// parsed as a Response. Cancelling ctx kills the plugin.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	// Children of a killed plugin may still hold its stdout open.
	cmd.WaitDelay = 500 * time.Millisecond

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return nil, fmt.Errorf("%w after %dms", ErrTimeout, e.timeoutMs)
	case context.Canceled:
		return nil, fmt.Errorf("plugin execution cancelled: %w", context.Canceled)
	}

	if err != nil {
		stderrStr := stderr.String()
		if stderrStr != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderrStr)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}
