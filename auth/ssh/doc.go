// Package ssh provides the credential preflight run before SSH clones.
//
// A clone over SSH with no usable key hangs on a password prompt or
// times out; Preflight fails fast instead. Credentials are satisfied by
// a running ssh-agent holding at least one identity, or by a public key
// file in the SSH directory:
//
//	if err := ssh.Preflight("git@github.com:acme/repo.git"); err != nil {
//	    return err
//	}
//
// Non-SSH remotes pass unconditionally, so callers run it on every
// remote. Use Config for a custom SSH directory or key preference
// order:
//
//	err := ssh.PreflightWithConfig(remote, ssh.Config{SSHDir: dir})
package ssh
