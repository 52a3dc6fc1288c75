package config

// Source identifies the layer a resolved value came from.
type Source string

const (
	SourceDefault Source = "default" // built-in default
	SourceGlobal  Source = "global"  // ~/.config/orion/config.yaml
	SourceLocal   Source = "local"   // .orion.yaml in the git root
	SourceEnv     Source = "env"     // ORION_* environment variable
	SourceFlag    Source = "flag"    // command-line flag
)
