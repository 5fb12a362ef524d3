package cmd

import (
	"testing"

	"github.com/dreamdenizen/everest-updater/internal/everest"
)

func TestResolveModsDir(t *testing.T) {
	t.Run("explicit directory flag wins", func(t *testing.T) {
		cfg := CLIConfig{ModsDir: "/custom/mods"}
		dir, err := resolveModsDir(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir != "/custom/mods" {
			t.Errorf("dir = %q; want /custom/mods", dir)
		}
	})

	t.Run("empty config falls back to default resolution", func(t *testing.T) {
		cfg := CLIConfig{}
		dir, err := resolveModsDir(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir == "" {
			t.Error("expected a non-empty default mods directory")
		}
	})
}

func TestParseMirrorPriority(t *testing.T) {
	t.Run("empty input falls back to documented default order", func(t *testing.T) {
		ids, err := parseMirrorPriority(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []everest.MirrorID{everest.MirrorC, everest.MirrorPrimary, everest.MirrorA, everest.MirrorB}
		if len(ids) != len(want) {
			t.Fatalf("ids = %v; want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("ids[%d] = %q; want %q", i, ids[i], want[i])
			}
		}
	})

	t.Run("unknown mirror name is rejected", func(t *testing.T) {
		_, err := parseMirrorPriority([]string{"not-a-mirror"})
		if err == nil {
			t.Fatal("expected an error for an unknown mirror name")
		}
	})

	t.Run("known names map to their mirror ids", func(t *testing.T) {
		ids, err := parseMirrorPriority([]string{"gb", "jade", "wegfan", "otobot"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []everest.MirrorID{everest.MirrorPrimary, everest.MirrorA, everest.MirrorB, everest.MirrorC}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("ids[%d] = %q; want %q", i, ids[i], want[i])
			}
		}
	})
}
