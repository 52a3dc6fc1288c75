package gitops

import (
	"fmt"
	"strings"
	"sync"
)

// SequentialMockRunner is a CommandRunner that returns scripted responses
// in order. Use it in tests to exercise Repo methods without a real repo.
type SequentialMockRunner struct {
	mu        sync.Mutex
	responses []mockResponse
	next      int

	// Calls records every command executed, as "<name> <args...>".
	Calls []string
}

type mockResponse struct {
	output string
	err    error
}

// NewSequentialMockRunner creates an empty mock runner.
func NewSequentialMockRunner() *SequentialMockRunner {
	return &SequentialMockRunner{}
}

// AddOutput queues a response for the next command.
func (m *SequentialMockRunner) AddOutput(output string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{output: output, err: err})
}

// Run implements CommandRunner.
func (m *SequentialMockRunner) Run(dir, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, name+" "+strings.Join(args, " "))

	if m.next >= len(m.responses) {
		return "", fmt.Errorf("unexpected command: %s %s", name, strings.Join(args, " "))
	}

	resp := m.responses[m.next]
	m.next++
	return resp.output, resp.err
}
