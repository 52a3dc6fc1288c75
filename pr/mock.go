package pr

import "context"

// MockProvider implements Provider for tests. Each method delegates to
// the corresponding func field when set and returns a benign default
// otherwise.
type MockProvider struct {
	CreatePRFunc func(ctx context.Context, opts Options) (*PullRequest, error)
	GetPRFunc    func(ctx context.Context, id int) (*PullRequest, error)
	MergePRFunc  func(ctx context.Context, id int, opts MergeOptions) error
}

func (m *MockProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	if m.CreatePRFunc != nil {
		return m.CreatePRFunc(ctx, opts)
	}
	return &PullRequest{ID: 1, URL: "https://example.com/pr/1"}, nil
}

func (m *MockProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	if m.GetPRFunc != nil {
		return m.GetPRFunc(ctx, id)
	}
	return &PullRequest{ID: id}, nil
}

func (m *MockProvider) MergePR(ctx context.Context, id int, opts MergeOptions) error {
	if m.MergePRFunc != nil {
		return m.MergePRFunc(ctx, id, opts)
	}
	return nil
}
