package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/watzon/hookline/internal/config"
)

const validHookfile = `hooks:
  - name: fmt-check
    event: before
    tool: Bash
    command: gofmt -l .
  - name: notify
    event: after
    command: "true"
`

func writeHookfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Hooks.File = filepath.Join(t.TempDir(), "hooks.yaml")
	return cfg
}

func TestReloaderInitialLoad(t *testing.T) {
	cfg := watchConfig(t)
	writeHookfile(t, cfg.Hooks.File, validHookfile)

	r, err := newReloader(cfg)
	if err != nil {
		t.Fatalf("newReloader: %v", err)
	}
	defer r.Close()

	if got := r.Registry().Len(); got != 2 {
		t.Errorf("expected 2 hooks, got %d", got)
	}
}

func TestReloaderRejectsInitialBadFile(t *testing.T) {
	cfg := watchConfig(t)
	writeHookfile(t, cfg.Hooks.File, "hooks:\n  - name: broken\n")

	if _, err := newReloader(cfg); err == nil {
		t.Error("expected error for invalid initial hookfile")
	}
}

func TestReloaderKeepsLastGoodOnBadEdit(t *testing.T) {
	cfg := watchConfig(t)
	writeHookfile(t, cfg.Hooks.File, validHookfile)

	r, err := newReloader(cfg)
	if err != nil {
		t.Fatalf("newReloader: %v", err)
	}
	defer r.Close()

	before := r.Registry()

	// A broken edit must not replace the working registry.
	writeHookfile(t, cfg.Hooks.File, "hooks:\n  - nonsense: true\n")
	r.reload()
	if r.Registry() != before {
		t.Error("expected registry to be unchanged after invalid edit")
	}

	// A fixed file swaps it in.
	writeHookfile(t, cfg.Hooks.File, validHookfile+`  - name: extra
    event: session_start
    command: "true"
`)
	r.reload()
	if r.Registry() == before {
		t.Error("expected registry to be replaced after valid edit")
	}
	if got := r.Registry().Len(); got != 3 {
		t.Errorf("expected 3 hooks after reload, got %d", got)
	}
}
