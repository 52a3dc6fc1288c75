package ssh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsSSHRemote(t *testing.T) {
	tests := []struct {
		remote string
		want   bool
	}{
		{"git@github.com:acme/repo.git", true},
		{"ssh://git@github.com/acme/repo.git", true},
		{"ssh://git@gitlab.example.com:2222/acme/repo.git", true},
		{"https://github.com/acme/repo.git", false},
		{"http://github.com/acme/repo.git", false},
		{"git://github.com/acme/repo.git", false},
		{"file:///tmp/repo", false},
		{"/local/path/repo", false},
		{"./relative/repo", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			if got := IsSSHRemote(tt.remote); got != tt.want {
				t.Errorf("IsSSHRemote(%q) = %v, want %v", tt.remote, got, tt.want)
			}
		})
	}
}

func TestPreflight_NonSSHRemote(t *testing.T) {
	// Must pass regardless of environment
	if err := Preflight("https://github.com/acme/repo.git"); err != nil {
		t.Errorf("Preflight: %v", err)
	}
}

func TestPreflightWithConfig_LocalKey(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	tmpDir := t.TempDir()
	keyPath := filepath.Join(tmpDir, "id_ed25519.pub")
	if err := os.WriteFile(keyPath, []byte(sampleED25519Key), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Config{SSHDir: tmpDir}
	if err := PreflightWithConfig("git@github.com:acme/repo.git", cfg); err != nil {
		t.Errorf("PreflightWithConfig: %v", err)
	}
}

func TestPreflightWithConfig_NoCredentials(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	cfg := Config{SSHDir: t.TempDir()}
	err := PreflightWithConfig("git@github.com:acme/repo.git", cfg)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}
