package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "check.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoaderDefaults(t *testing.T) {
	path := writeConfig(t, "version: v1\npatch:\n  path: patches/source-generator.pd\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()

	if cfg.Patch.Router != "route" {
		t.Errorf("router default = %q", cfg.Patch.Router)
	}
	if cfg.Patch.Selector != "selector~" {
		t.Errorf("selector default = %q", cfg.Patch.Selector)
	}
	if cfg.Patch.Sink != "outlet~" {
		t.Errorf("sink default = %q", cfg.Patch.Sink)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr default = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeoutMs != 10000 {
		t.Errorf("read timeout default = %d", cfg.Server.ReadTimeoutMs)
	}
}

func TestLoaderOverrides(t *testing.T) {
	path := writeConfig(t, `version: v1
patch:
  path: fixtures/demux.pd
  router: demux
  selector: mux~
  sink: dac~
  watch: true
server:
  addr: ":9191"
`)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()

	kinds := cfg.Patch.Kinds()
	if kinds.Router != "demux" || kinds.Selector != "mux~" || kinds.Sink != "dac~" {
		t.Errorf("kinds = %+v", kinds)
	}
	if !cfg.Patch.Watch {
		t.Error("watch not set")
	}
	if cfg.Server.Addr != ":9191" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoaderBadYAML(t *testing.T) {
	path := writeConfig(t, "version: [unclosed\n")
	if _, err := NewLoader(path); err == nil {
		t.Fatal("NewLoader accepted invalid YAML")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("NewLoader accepted a missing file")
	}
}

func TestReloadInvokesCallbacks(t *testing.T) {
	path := writeConfig(t, "version: v1\npatch:\n  path: a.pd\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	var got *CheckConfig
	l.OnChange(func(cfg *CheckConfig) { got = cfg })

	if err := os.WriteFile(path, []byte("version: v2\npatch:\n  path: b.pd\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	cfg, err := l.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cfg.Version != "v2" || cfg.Patch.Path != "b.pd" {
		t.Errorf("reloaded config = %+v", cfg)
	}
	if got != cfg {
		t.Error("OnChange callback did not receive the new config")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CheckConfig)
		wantErr string
	}{
		{"valid", func(c *CheckConfig) {}, ""},
		{"missing version", func(c *CheckConfig) { c.Version = "" }, "version is required"},
		{"missing path", func(c *CheckConfig) { c.Patch.Path = "" }, "patch.path is required"},
		{"empty kind", func(c *CheckConfig) { c.Patch.Sink = "" }, "patch.sink must not be empty"},
		{"colliding kinds", func(c *CheckConfig) { c.Patch.Sink = c.Patch.Router }, "both name kind"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &CheckConfig{Version: "v1", Patch: PatchConf{Path: "x.pd"}}
			ApplyDefaults(cfg)
			c.mutate(cfg)
			err := Validate(cfg)
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, c.wantErr)
			}
		})
	}
}
