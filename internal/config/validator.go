package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields (version, patch path)
//   - Distinct node kinds (router/selector/sink must not collide, or the
//     uniqueness lookups would be meaningless)
func Validate(cfg *CheckConfig) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Patch.Path == "" {
		errs = append(errs, "patch.path is required")
	}

	kinds := map[string]string{}
	for _, kv := range []struct{ field, kind string }{
		{"patch.router", cfg.Patch.Router},
		{"patch.selector", cfg.Patch.Selector},
		{"patch.sink", cfg.Patch.Sink},
	} {
		field, kind := kv.field, kv.kind
		if kind == "" {
			errs = append(errs, fmt.Sprintf("%s must not be empty", field))
			continue
		}
		if prev, ok := kinds[kind]; ok {
			errs = append(errs, fmt.Sprintf("%s and %s both name kind %q", prev, field, kind))
		} else {
			kinds[kind] = field
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
