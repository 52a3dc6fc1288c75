package task

import (
	"github.com/randalmurphal/llmkit/model"
)

// Type is the kind of generation work a step is asking for. It decides
// which model tier the generator runs with.
type Type string

const (
	// Code-producing tasks - default tier.
	Implement Type = "implement"
	FixTests  Type = "fix_tests"

	// Prose tasks - small models are enough.
	DescribePR  Type = "pr_description"
	WriteCommit Type = "commit_message"
)

// DefaultModelMap maps task types to default models.
var DefaultModelMap = map[Type]model.ModelName{
	Implement:   model.ModelSonnet,
	FixTests:    model.ModelSonnet,
	DescribePR:  model.ModelHaiku,
	WriteCommit: model.ModelHaiku,
}

// TierForTask returns the tier a task type runs on.
func TierForTask(t Type) model.Tier {
	switch t {
	case DescribePR, WriteCommit:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewSelector creates a model selector that understands Type values.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if t, ok := task.(Type); ok {
				return TierForTask(t)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// SelectModel selects the model for a task type. Unknown types fall back
// to tier-based selection.
func SelectModel(t Type) model.ModelName {
	if m, ok := DefaultModelMap[t]; ok {
		return m
	}
	if TierForTask(t) == model.TierFast {
		return model.ModelHaiku
	}
	return model.ModelSonnet
}
