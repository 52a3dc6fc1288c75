// Package codetest runs test and lint commands against a working tree and
// parses their output into structured results.
//
// The Tester shells out through a gitops.CommandRunner so tests can inject
// a SequentialMockRunner instead of a real shell:
//
//	tester := codetest.New(worktree)
//	result, err := tester.Run(ctx)
//	if !result.Passed {
//	    for _, f := range result.Failures {
//	        fmt.Println(f.Name)
//	    }
//	}
package codetest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/randalmurphal/orion/gitops"
)

// DefaultTestCommand is the default command used to run tests.
const DefaultTestCommand = "go test -race ./..."

// DefaultLintCommand is the default command used to run the linter.
const DefaultLintCommand = "go vet ./..."

// DefaultTimeout bounds a single test or lint invocation.
const DefaultTimeout = 60 * time.Second

// ErrTimeout indicates the command did not finish within the timeout.
var ErrTimeout = errors.New("command timed out")

// TestOutput contains parsed test results.
type TestOutput struct {
	Passed       bool          `json:"passed"`
	TotalTests   int           `json:"totalTests"`
	PassedTests  int           `json:"passedTests"`
	FailedTests  int           `json:"failedTests"`
	SkippedTests int           `json:"skippedTests"`
	Duration     string        `json:"duration"`
	Failures     []TestFailure `json:"failures,omitempty"`
}

// TestFailure represents a single test failure.
type TestFailure struct {
	Name    string `json:"name"`
	Package string `json:"package,omitempty"`
	Message string `json:"message,omitempty"`
	Output  string `json:"output,omitempty"`
}

// LintOutput contains parsed linter results.
type LintOutput struct {
	Passed bool        `json:"passed"`
	Tool   string      `json:"tool"`
	Issues []LintIssue `json:"issues,omitempty"`
}

// LintIssue represents a single lint finding.
type LintIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// FileCheck is the result of verifying a single source file.
type FileCheck struct {
	File   string `json:"file"`
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// Tester runs test and lint commands in a working tree.
type Tester struct {
	workDir     string
	runner      gitops.CommandRunner
	testCommand string
	lintCommand string
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures Tester.
type Option func(*Tester)

// WithRunner sets a custom command runner. Used by tests.
func WithRunner(runner gitops.CommandRunner) Option {
	return func(t *Tester) { t.runner = runner }
}

// WithTestCommand overrides the test command.
func WithTestCommand(cmd string) Option {
	return func(t *Tester) { t.testCommand = cmd }
}

// WithLintCommand overrides the lint command.
func WithLintCommand(cmd string) Option {
	return func(t *Tester) { t.lintCommand = cmd }
}

// WithTimeout bounds each command invocation.
func WithTimeout(d time.Duration) Option {
	return func(t *Tester) { t.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tester) { t.logger = logger }
}

// New creates a Tester for the working tree.
func New(workDir string, opts ...Option) *Tester {
	t := &Tester{
		workDir:     workDir,
		runner:      gitops.NewExecRunner(),
		testCommand: DefaultTestCommand,
		lintCommand: DefaultLintCommand,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WorkDir returns the working tree path.
func (t *Tester) WorkDir() string {
	return t.workDir
}

// Run executes the test command and parses the output. Test failures are
// reported through the result, not the error; the error is reserved for
// timeouts and cancellation.
func (t *Tester) Run(ctx context.Context) (*TestOutput, error) {
	start := time.Now()
	output, err := t.runShell(ctx, t.testCommand)
	if err != nil && (errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled)) {
		return nil, err
	}

	result := ParseTestOutput(output, err == nil)
	result.Duration = time.Since(start).Round(time.Millisecond).String()

	t.logger.Info("test run finished",
		"passed", result.Passed,
		"total", result.TotalTests,
		"failed", result.FailedTests,
		"duration", result.Duration)

	return result, nil
}

// Lint executes the lint command and parses the output.
func (t *Tester) Lint(ctx context.Context) (*LintOutput, error) {
	output, err := t.runShell(ctx, t.lintCommand)
	if err != nil && (errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled)) {
		return nil, err
	}

	result := ParseLintOutput(output, err == nil)
	result.Tool = firstWord(t.lintCommand)

	t.logger.Info("lint finished", "passed", result.Passed, "issues", len(result.Issues))
	return result, nil
}

// CheckFiles verifies individual source files by running the check command
// against each one, e.g. "python -m py_compile". Failures in one file do
// not stop the remaining checks.
func (t *Tester) CheckFiles(ctx context.Context, checkCommand string, files []string) ([]FileCheck, error) {
	checks := make([]FileCheck, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return checks, err
		}

		output, err := t.runShell(ctx, fmt.Sprintf("%s %s", checkCommand, shellQuote(f)))
		if errors.Is(err, ErrTimeout) {
			return checks, err
		}

		check := FileCheck{File: f, Passed: err == nil, Output: output}
		if !check.Passed {
			t.logger.Warn("file check failed", "file", filepath.Base(f), "error", err)
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// AllPassed reports whether every file check succeeded.
func AllPassed(checks []FileCheck) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

type runResult struct {
	output string
	err    error
}

// runShell runs a command through "sh -c" with the configured timeout.
// The runner interface has no cancellation, so a timed-out command keeps
// running in the background; we stop waiting for it.
func (t *Tester) runShell(ctx context.Context, command string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	done := make(chan runResult, 1)
	go func() {
		output, err := t.runner.Run(t.workDir, "sh", "-c", command)
		done <- runResult{output, err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %s", ErrTimeout, t.timeout, command)
		}
		return "", ctx.Err()
	}
}
