// Package pr opens pull requests for workflow run branches.
//
// A Provider abstracts the git host; GitHubProvider (go-github) and
// GitLabProvider (go-gitlab) are the real implementations and
// MockProvider stands in for tests. Runs receive their Provider
// through the context via ContextWithProvider, and Builder assembles
// the title, body, and labels the publish step submits.
//
//	provider, err := pr.ProviderFromEnv(remoteURL)
//	if err != nil {
//		return err
//	}
//	ctx = pr.ContextWithProvider(ctx, provider)
package pr
