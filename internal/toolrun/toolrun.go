// Package toolrun invokes external tools (test runner, package manager,
// audit tooling) behind a small interface so pipeline stages can be tested
// without spawning processes.
package toolrun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Runner executes one external command and returns its combined output.
// A non-zero exit is returned as an error alongside whatever output the
// tool produced; some tools (npm audit, npm outdated) exit non-zero while
// still emitting usable JSON, so callers get both.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Timeout bounds each invocation;
// zero means no timeout, hanging with the tool, which is the documented
// base-design behavior.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes argv in dir
func (r ExecRunner) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if ctx.Err() != nil {
		return buf.Bytes(), fmt.Errorf("%s timed out: %w", argv[0], ctx.Err())
	}
	return buf.Bytes(), err
}

// FakeRunner returns canned results per command head; used by tests.
type FakeRunner struct {
	// Results maps argv[0] to output; Errors maps argv[0] to a forced error
	Results map[string][]byte
	Errors  map[string]error

	// Calls records every invocation
	Calls [][]string
}

// Run returns the canned result for argv[0]
func (r *FakeRunner) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	r.Calls = append(r.Calls, argv)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if err, ok := r.Errors[argv[0]]; ok && err != nil {
		return r.Results[argv[0]], err
	}
	return r.Results[argv[0]], nil
}
