package ssh

import "errors"

var (
	// ErrNoSSHAgent is returned when no ssh-agent socket is available.
	ErrNoSSHAgent = errors.New("ssh-agent not available")

	// ErrNoSSHKeys is returned when key discovery finds nothing.
	ErrNoSSHKeys = errors.New("no SSH keys found")

	// ErrInvalidKeyFormat is returned for a malformed public key file.
	ErrInvalidKeyFormat = errors.New("invalid SSH public key format")

	// ErrNoCredentials is returned by Preflight when neither the agent
	// nor the SSH directory can provide a usable key.
	ErrNoCredentials = errors.New("no SSH credentials available")
)
