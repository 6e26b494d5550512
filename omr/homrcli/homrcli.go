// Package homrcli adapts an external optical-music-recognition process as a
// recognition engine. The process receives the staged page image path as its
// final argument and prints the symbolic score as JSON on stdout.
package homrcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"scorelib/omr"
)

// Engine shells out to a recognizer binary.
type Engine struct {
	path string
	args []string
}

// New constructs an Engine invoking the binary at path with the given fixed
// arguments ahead of the image path.
func New(path string, args ...string) *Engine {
	return &Engine{path: path, args: args}
}

func (e *Engine) Name() string { return "homr-cli" }

// Recognize runs the external process on the staged image and decodes its
// JSON score output.
func (e *Engine) Recognize(ctx context.Context, in omr.Input) (*omr.Score, error) {
	if e.path == "" {
		return nil, fmt.Errorf("homrcli: no recognizer binary configured")
	}
	if in.Path == "" {
		return nil, fmt.Errorf("homrcli: input was not staged to a file")
	}

	args := append(append([]string(nil), e.args...), in.Path)
	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("homrcli: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("homrcli: %w", err)
	}
	return ParseScore(stdout.Bytes())
}

// ParseScore decodes the recognizer's JSON output.
func ParseScore(data []byte) (*omr.Score, error) {
	var score omr.Score
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("homrcli: decode score: %w", err)
	}
	return &score, nil
}
