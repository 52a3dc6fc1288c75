package ssh

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config controls where key discovery looks.
type Config struct {
	// SSHDir is the SSH directory. Defaults to ~/.ssh.
	SSHDir string

	// PreferredKeys is the public key filename preference order.
	// Defaults to ed25519, ecdsa, rsa.
	PreferredKeys []string
}

// DefaultPreferredKeys is the default key preference order.
var DefaultPreferredKeys = []string{
	"id_ed25519.pub",
	"id_ecdsa.pub",
	"id_rsa.pub",
}

func (c Config) sshDir() (string, error) {
	if c.SSHDir != "" {
		return c.SSHDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".ssh"), nil
}

func (c Config) preferredKeys() []string {
	if len(c.PreferredKeys) > 0 {
		return c.PreferredKeys
	}
	return DefaultPreferredKeys
}

// KeyInfo describes a local SSH public key.
type KeyInfo struct {
	Path        string // public key file
	PublicKey   string // authorized_keys form
	Type        string // key algorithm, e.g. "ssh-ed25519"
	Fingerprint string // SHA256 fingerprint
	Comment     string
}

// FindDefaultKey returns the first public key from the preference order
// present in ~/.ssh.
func FindDefaultKey() (*KeyInfo, error) {
	return FindDefaultKeyWithConfig(Config{})
}

// FindDefaultKeyWithConfig is FindDefaultKey with a custom Config.
func FindDefaultKeyWithConfig(cfg Config) (*KeyInfo, error) {
	sshDir, err := cfg.sshDir()
	if err != nil {
		return nil, err
	}

	for _, name := range cfg.preferredKeys() {
		if info, err := ReadPublicKey(filepath.Join(sshDir, name)); err == nil {
			return info, nil
		}
	}

	return nil, ErrNoSSHKeys
}

// ReadPublicKey reads and parses a public key file in authorized_keys
// format: "<type> <base64 key> [comment]".
func ReadPublicKey(path string) (*KeyInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	keyData := strings.TrimSpace(string(data))
	parts := strings.SplitN(keyData, " ", 3)
	if len(parts) < 2 {
		return nil, ErrInvalidKeyFormat
	}
	blob, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid key data: %w", err)
	}

	info := &KeyInfo{
		Path:        path,
		PublicKey:   keyData,
		Type:        parts[0],
		Fingerprint: Fingerprint(blob),
	}
	if len(parts) == 3 {
		info.Comment = parts[2]
	}
	return info, nil
}

// Fingerprint computes the OpenSSH-style SHA256 fingerprint of a key
// blob.
func Fingerprint(blob []byte) string {
	hash := sha256.Sum256(blob)
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(hash[:])
}
