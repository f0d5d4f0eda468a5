package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// stderrTailLimit bounds how much subprocess output is kept on a failure.
const stderrTailLimit = 2000

// Runner executes an external command in a working directory and returns
// its combined output. Injected so the pipeline can be exercised without
// spawning real package-manager processes.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// ToolError is a structured subprocess failure. The exit code and stderr
// tail are kept separate from the message so callers format them for
// display only at the boundary.
type ToolError struct {
	Command    string
	ExitCode   int
	StderrTail string
}

func (e *ToolError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.StderrTail)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

// NewExecRunner returns the default subprocess runner.
func NewExecRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Background jobs must never block on an interactive credential
	// prompt from a spawned tool.
	cmd.Env = append(cmd.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"CI=true",
	)

	err := cmd.Run()
	output := stdout.String() + stderr.String()
	if err == nil {
		return output, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, &ToolError{
			Command:    name + " " + strings.Join(args, " "),
			ExitCode:   exitErr.ExitCode(),
			StderrTail: tail(stderr.String(), stderrTailLimit),
		}
	}
	return output, fmt.Errorf("failed to run %s: %w", name, err)
}

// tail returns at most limit trailing characters of s.
func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
