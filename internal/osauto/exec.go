package osauto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"strings"
	"time"
)

// Output is what a finished process left behind.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Text joins both streams for diagnostics.
func (o Output) Text() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(o.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(o.Stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// Runner starts a process and waits for it. A non-zero exit status is an
// error; the Output is still filled in.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	c := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	log.Debug("Process finished", "cmd", name, "took", time.Since(start), "err", err)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, fmt.Errorf("%s exited with %d: %w", name, out.ExitCode, err)
	}
	if err != nil {
		out.ExitCode = -1
		return out, fmt.Errorf("start %s: %w", name, err)
	}
	return out, nil
}

var _ Runner = ExecRunner{}
