package pr

import (
	"context"
	"testing"
)

func TestProviderContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		mock := &MockProvider{}
		ctx := ContextWithProvider(context.Background(), mock)
		if got := ProviderFromContext(ctx); got != Provider(mock) {
			t.Errorf("ProviderFromContext = %v, want the stored mock", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		if got := ProviderFromContext(context.Background()); got != nil {
			t.Errorf("ProviderFromContext on empty context = %v, want nil", got)
		}
	})

	t.Run("last store wins", func(t *testing.T) {
		first := &MockProvider{}
		second := &MockProvider{}
		ctx := ContextWithProvider(context.Background(), first)
		ctx = ContextWithProvider(ctx, second)
		if got := ProviderFromContext(ctx); got != Provider(second) {
			t.Error("expected the provider stored last")
		}
	})
}
