package gitops

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes external commands. The default implementation
// shells out via os/exec; tests inject a fake to avoid touching real tools.
// Steps that run test or lint commands share this interface.
type CommandRunner interface {
	// Run executes name with the given args in dir and returns trimmed stdout.
	// On failure the error message carries the command's stderr.
	Run(dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner returns the default command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		return errMsg, fmt.Errorf("%s", errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
