package pr

import (
	"fmt"
	"os"
	"strings"
)

// DetectProvider names the git host a remote URL points at. Returns
// "github", "gitlab", or "bitbucket", or ErrUnknownProvider wrapped
// with the URL.
func DetectProvider(remoteURL string) (string, error) {
	u := strings.ToLower(remoteURL)
	switch {
	case strings.Contains(u, "github.com"):
		return "github", nil
	case strings.Contains(u, "gitlab"):
		return "gitlab", nil
	case strings.Contains(u, "bitbucket"):
		return "bitbucket", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, remoteURL)
}

// ParseRepoFromURL extracts the owner and repository name from an
// HTTPS remote ("https://host/owner/repo.git") or an scp-style SSH
// remote ("git@host:owner/repo.git").
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")

	if _, rest, ok := strings.Cut(trimmed, "://"); ok {
		segs := strings.Split(rest, "/")
		if len(segs) < 3 {
			return "", "", fmt.Errorf("remote %q: path is not owner/repo", remoteURL)
		}
		return segs[len(segs)-2], segs[len(segs)-1], nil
	}

	if strings.Contains(trimmed, "@") {
		_, path, ok := strings.Cut(trimmed, ":")
		if !ok || strings.Contains(path, ":") {
			return "", "", fmt.Errorf("remote %q: malformed SSH remote", remoteURL)
		}
		segs := strings.Split(path, "/")
		if len(segs) != 2 {
			return "", "", fmt.Errorf("remote %q: path is not owner/repo", remoteURL)
		}
		return segs[0], segs[1], nil
	}

	return "", "", fmt.Errorf("remote %q: unrecognized format", remoteURL)
}

// ProviderFromEnv builds a Provider for the remote's host using a
// token from the environment. GitHub reads GITHUB_TOKEN, GitLab reads
// GITLAB_TOKEN, and both fall back to GIT_TOKEN.
func ProviderFromEnv(remoteURL string) (Provider, error) {
	host, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}

	switch host {
	case "github":
		token, err := tokenFromEnv("GITHUB_TOKEN")
		if err != nil {
			return nil, err
		}
		return NewGitHubProviderFromURL(token, remoteURL)
	case "gitlab":
		token, err := tokenFromEnv("GITLAB_TOKEN")
		if err != nil {
			return nil, err
		}
		return NewGitLabProviderFromURL(token, remoteURL)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, host)
}

// ProviderFromEnvWithToken is ProviderFromEnv with an explicit token,
// for callers that carry credentials in configuration instead of the
// environment.
func ProviderFromEnvWithToken(remoteURL, token string) (Provider, error) {
	host, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}
	switch host {
	case "github":
		return NewGitHubProviderFromURL(token, remoteURL)
	case "gitlab":
		return NewGitLabProviderFromURL(token, remoteURL)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, host)
}

func tokenFromEnv(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	if v := os.Getenv("GIT_TOKEN"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s or GIT_TOKEN not set; export a personal access token", name)
}
