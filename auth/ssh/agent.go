package ssh

import (
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/crypto/ssh/agent"
)

// AgentConn is an ssh-agent client paired with its socket so the
// connection can be released after the preflight check.
type AgentConn struct {
	agent.ExtendedAgent
	conn io.Closer
}

// Close releases the agent socket.
func (a *AgentConn) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// DialAgent connects to the ssh-agent named by SSH_AUTH_SOCK.
func DialAgent() (*AgentConn, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, ErrNoSSHAgent
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("connect to ssh-agent: %w", err)
	}

	return &AgentConn{
		ExtendedAgent: agent.NewClient(conn),
		conn:          conn,
	}, nil
}

// HasKeys reports whether the agent holds at least one identity.
func HasKeys(ag agent.Agent) bool {
	keys, err := ag.List()
	return err == nil && len(keys) > 0
}
