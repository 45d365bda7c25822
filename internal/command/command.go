// Package command runs external programs with an explicit argument vector,
// a wall-clock timeout and a cap on captured output. Arguments are never
// passed through a shell.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTimeout applies when neither the context nor the caller sets one.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutput caps captured stdout at 10 MiB.
	DefaultMaxOutput = 10 * 1024 * 1024

	// maxStderr caps the stderr kept for error messages.
	maxStderr = 64 * 1024
)

// ErrOutputTooLarge is returned when a command writes more than the cap.
var ErrOutputTooLarge = errors.New("command output exceeds limit")

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Timeout   time.Duration
	MaxOutput int
	Dir       string
}

// NewExecRunner returns a runner with the given limits; zero values fall
// back to the package defaults.
func NewExecRunner(timeout time.Duration, maxOutput int) *ExecRunner {
	return &ExecRunner{Timeout: timeout, MaxOutput: maxOutput}
}

// Run executes name with args. A non-zero exit, a timeout or an oversized
// output are all reported as errors.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	cmd.WaitDelay = time.Second

	stdout := &limitedBuffer{limit: maxOutput}
	stderr := &limitedBuffer{limit: maxStderr, truncate: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	output := stdout.String()

	switch {
	case stdout.exceeded:
		return output, fmt.Errorf("%s: %w (%d bytes)", name, ErrOutputTooLarge, maxOutput)
	case ctx.Err() == context.DeadlineExceeded:
		return output, fmt.Errorf("%s timed out after %s: %w", name, timeout, ctx.Err())
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("command failed: %s (exit code %d): %s",
				name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return output, fmt.Errorf("command failed: %s: %w", name, err)
	}

	return output, nil
}

// LookPath reports whether name resolves to an executable.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// limitedBuffer stores at most limit bytes. Past the limit it fails further
// writes, which makes the child see a broken pipe, unless truncate is set,
// in which case the excess is dropped silently.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int
	truncate bool
	exceeded bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := max(b.limit-b.buf.Len(), 0)
	if len(p) <= remaining {
		return b.buf.Write(p)
	}

	b.buf.Write(p[:remaining])
	b.exceeded = true
	if b.truncate {
		return len(p), nil
	}
	return remaining, ErrOutputTooLarge
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
