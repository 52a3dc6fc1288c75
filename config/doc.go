// Package config resolves orion's layered configuration.
//
// Values merge with clear precedence:
//  1. Environment variables (ORION_*, highest priority)
//  2. Local config (.orion.yaml in the git root)
//  3. Global config (~/.config/orion/config.yaml)
//  4. Built-in defaults (lowest priority)
//
// Most callers load the typed settings directly:
//
//	settings := config.LoadSettings()
//	if settings.EnableTesting {
//	    // ...
//	}
//
// The untyped resolver exposes per-key provenance:
//
//	r := config.NewResolver()
//	cfg := r.Resolve()
//	fmt.Println(cfg.Get("base_branch"))    // "main"
//	fmt.Println(cfg.Source("base_branch")) // "default"
//
// Saver writes edits back to either file:
//
//	saver := config.NewSaver()
//	err := saver.SaveGlobal("model", "opus")
package config
