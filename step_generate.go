package orion

import (
	"context"
	"errors"
	"fmt"
	"time"

	orionctx "github.com/randalmurphal/orion/context"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/generate"
	"github.com/randalmurphal/orion/task"
)

// GenerateStep runs the AI generator against the working copy with the
// task from state. The rendered prompt, the generator result, and the
// resulting diff are saved as run artifacts when an artifact manager is
// in the context; state only carries the token and cost accounting.
//
// Reads: task, workdir, run_id.
// Writes: generated, tokens_in, tokens_out, cost_usd, session_id.
func GenerateStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		gen := orionctx.Generator(ctx)
		if gen == nil {
			return flow.Fatal(ErrNoGenerator)
		}
		taskText := view.GetString(FieldTask)
		if taskText == "" {
			return flow.Fatal(ErrNoTask)
		}
		workDir := view.GetString(FieldWorkDir)
		if workDir == "" {
			return flow.Fatal(ErrNoWorkDir)
		}
		runID := view.GetString(FieldRunID)

		promptText, err := buildImplementPrompt(ctx, workDir, taskText)
		if err != nil {
			return flow.Fatal(fmt.Errorf("render prompt: %w", err))
		}
		if am := orionctx.Artifact(ctx); am != nil {
			if err := am.SavePrompt(runID, promptText); err != nil {
				return flow.Fatal(fmt.Errorf("save prompt artifact: %w", err))
			}
		}

		opts := []generate.RunOption{
			generate.WithWorkDir(workDir),
			generate.ForTask(task.Implement),
		}
		if cfg.Model != "" {
			opts = append(opts, generate.WithModel(cfg.Model))
		}

		res, err := gen.Run(ctx, promptText, opts...)
		if err != nil {
			switch {
			case errors.Is(err, generate.ErrNotFound):
				return flow.Unavailable(err)
			case errors.Is(err, generate.ErrTimeout):
				return flow.Transient(err)
			default:
				return flow.Transient(fmt.Errorf("generate: %w", err))
			}
		}

		if am := orionctx.Artifact(ctx); am != nil {
			if err := am.SaveGeneration(runID, res); err != nil {
				return flow.Fatal(fmt.Errorf("save generation artifact: %w", err))
			}
			if repo, err := repoFor(ctx, view); err == nil {
				if diff, err := repo.Diff("HEAD", ""); err == nil && diff != "" {
					if err := am.SaveDiff(runID, diff); err != nil {
						return flow.Fatal(fmt.Errorf("save diff artifact: %w", err))
					}
				}
			}
		}

		return flow.Succeedf(flow.Patch{
			FieldGenerated: true,
			FieldTokensIn:  res.TokensIn,
			FieldTokensOut: res.TokensOut,
			FieldCostUSD:   res.Cost,
			FieldSessionID: res.SessionID,
		}, "generated in %s ($%.4f)", res.Duration.Round(time.Millisecond), res.Cost)
	}
}

// buildImplementPrompt renders the implement template when a loader is
// present, falling back to the raw task text.
func buildImplementPrompt(ctx context.Context, workDir, taskText string) (string, error) {
	loader := orionctx.Prompt(ctx)
	if loader == nil || !loader.Exists("implement") {
		return taskText, nil
	}
	return loader.LoadWithVars("implement", map[string]any{
		"RepoPath": workDir,
		"Task":     taskText,
	})
}
