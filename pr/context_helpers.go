package pr

import "context"

type ctxKey struct{}

// ContextWithProvider returns a context carrying the Provider. Steps
// that open pull requests look it up with ProviderFromContext, so a
// run can swap in a MockProvider without touching step code.
func ContextWithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// ProviderFromContext returns the Provider stored by
// ContextWithProvider, or nil if the context carries none.
func ProviderFromContext(ctx context.Context) Provider {
	p, _ := ctx.Value(ctxKey{}).(Provider)
	return p
}
