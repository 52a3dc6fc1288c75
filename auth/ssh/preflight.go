package ssh

import (
	"fmt"
	"strings"
)

// IsSSHRemote reports whether a git remote URL uses SSH transport.
// Recognizes ssh:// URLs and scp-like syntax (git@host:path).
func IsSSHRemote(remote string) bool {
	if strings.HasPrefix(remote, "ssh://") {
		return true
	}
	for _, scheme := range []string{"http://", "https://", "git://", "file://"} {
		if strings.HasPrefix(remote, scheme) {
			return false
		}
	}
	head, _, ok := strings.Cut(remote, ":")
	return ok && strings.Contains(head, "@") && !strings.Contains(head, "/")
}

// Preflight verifies that SSH credentials are available before a clone
// is attempted. It returns nil for non-SSH remotes, so callers can run
// it unconditionally.
func Preflight(remote string) error {
	return PreflightWithConfig(remote, Config{})
}

// PreflightWithConfig is Preflight with a custom key configuration.
// Credentials are satisfied by a running ssh-agent holding at least one
// key, or by a local key file in the SSH directory.
func PreflightWithConfig(remote string, cfg Config) error {
	if !IsSSHRemote(remote) {
		return nil
	}

	if ag, err := DialAgent(); err == nil {
		defer ag.Close()
		if HasKeys(ag) {
			return nil
		}
	}

	if _, err := FindDefaultKeyWithConfig(cfg); err == nil {
		return nil
	}

	return fmt.Errorf("ssh preflight for %s: %w", remote, ErrNoCredentials)
}
