package config

import "github.com/bholykov/pdstage/internal/topology"

// CheckConfig is the top-level YAML structure.
type CheckConfig struct {
	Version string     `yaml:"version"`
	Patch   PatchConf  `yaml:"patch"`
	Server  ServerConf `yaml:"server"`
}

// PatchConf names the patch file and the node kinds the resolver looks for.
type PatchConf struct {
	Path     string `yaml:"path"`
	Router   string `yaml:"router"`   // default "route"
	Selector string `yaml:"selector"` // default "selector~"
	Sink     string `yaml:"sink"`     // default "outlet~"
	Watch    bool   `yaml:"watch"`    // re-verify when the patch file changes
}

// ServerConf holds HTTP server settings for serve mode.
type ServerConf struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	IdleTimeoutMs  int    `yaml:"idle_timeout_ms"`
}

// Kinds converts the configured node kinds into the resolver's type.
func (p PatchConf) Kinds() topology.Kinds {
	return topology.Kinds{Router: p.Router, Selector: p.Selector, Sink: p.Sink}
}
