// Package command abstracts external process execution behind a small
// capability interface so transcoding and download logic can be tested
// without invoking real tools.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes external commands and resolves tool paths.
type Runner interface {
	// LookPath reports whether the named tool is invocable on this host.
	LookPath(tool string) (string, error)

	// Run executes the command synchronously and returns captured stdout
	// and stderr. A non-zero exit code is reported through err; the
	// captured streams are returned regardless.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ToolNotFoundError indicates a required external tool is missing from the host.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found, install it and ensure it is on PATH", e.Tool)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// LookPath resolves the tool on PATH.
func (r *ExecRunner) LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}

// Run executes the command, capturing stdout and stderr in full.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), err
}

// Truncate shortens tool diagnostic output to at most limit bytes so raw
// stderr noise is not surfaced to API clients in full.
func Truncate(output []byte, limit int) string {
	s := string(bytes.TrimSpace(output))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
