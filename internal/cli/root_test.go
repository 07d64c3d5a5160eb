package cli

import (
	"testing"
	"time"
)

func TestLoadRegistryAppliesConfiguredTimeout(t *testing.T) {
	cfg := watchConfig(t)
	cfg.Executor.DefaultTimeout = 2 * time.Second
	writeHookfile(t, cfg.Hooks.File, `hooks:
  - name: bare
    event: before
    command: "true"
  - name: explicit
    event: before
    command: "true"
    timeout: 10
`)

	reg, err := loadRegistry(cfg)
	if err != nil {
		t.Fatalf("loadRegistry: %v", err)
	}

	bare, ok := reg.Get("bare")
	if !ok {
		t.Fatal("hook bare not loaded")
	}
	if bare.Def.Timeout != 2*time.Second {
		t.Errorf("expected configured default timeout 2s, got %v", bare.Def.Timeout)
	}

	explicit, ok := reg.Get("explicit")
	if !ok {
		t.Fatal("hook explicit not loaded")
	}
	if explicit.Def.Timeout != 10*time.Second {
		t.Errorf("expected explicit timeout 10s, got %v", explicit.Def.Timeout)
	}
}
