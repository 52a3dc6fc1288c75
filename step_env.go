package orion

import (
	"context"
	"fmt"

	orionctx "github.com/randalmurphal/orion/context"
	"github.com/randalmurphal/orion/envmgr"
	"github.com/randalmurphal/orion/flow"
)

// EnvStep provisions an isolated environment in the working copy so test
// and generation steps run against installed dependencies. Provisioning
// failures are transient: package indexes and registries come back.
//
// Reads: workdir.
// Writes: env_ready, env_kind.
func EnvStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		mgr := orionctx.Env(ctx)
		if mgr == nil {
			dir := view.GetString(FieldWorkDir)
			if dir == "" {
				return flow.Fatal(ErrNoWorkDir)
			}
			mgr = envmgr.New(dir, envmgr.WithRunner(orionctx.GetRunner(ctx)))
		}

		kind := envmgr.Detect(mgr.RepoPath())
		if err := mgr.Setup(); err != nil {
			return flow.Transient(fmt.Errorf("env setup (%s): %w", kind, err))
		}

		return flow.Succeed(flow.Patch{
			FieldEnvReady: true,
			FieldEnvKind:  string(kind),
		})
	}
}
