// Package context provides dependency injection for workflow services.
//
// Core types:
//   - Services: collection of all orion services for injection
//
// Context injection functions:
//   - WithRepo/Repo: git repository injection
//   - WithGenerator/Generator: code generator injection
//   - WithEnv/Env: environment manager injection
//   - WithTester/Tester: test harness injection
//   - WithRunLog/RunLog: run journal store injection
//   - WithArtifact/Artifact: artifact manager injection
//   - WithPrompt/Prompt: prompt loader injection
//   - WithRunner/Runner: command runner injection (for testing)
//
// PR providers and notifiers are injected through their own packages
// (pr.ContextWithProvider, notify.WithNotifier); InjectAll handles both.
//
// Example usage:
//
//	services := &context.Services{
//	    Repo:     repo,
//	    Notifier: slackNotifier,
//	}
//	ctx := services.InjectAll(ctx)
//
//	// Later, retrieve services
//	repo := context.Repo(ctx)
//	gen := context.Generator(ctx)
package context
