package everest

import "testing"

func TestParseRegistry(t *testing.T) {
	raw := []byte(`
ModA:
  Version: 1.0.0
  URL: https://gamebanana.com/mmdl/111
  Size: 1024
  xxHash:
    - f437bf0515368130
  GameBananaType: Mod
  GameBananaId: 42
ModB:
  Version: 2.0.0
  URL: https://gamebanana.com/mmdl/222
  Size: 2048
  xxHash:
    - 0000000000000001
  GameBananaType: Mod
  GameBananaId: 42
`)
	registry, err := ParseRegistry(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("name is injected from the map key", func(t *testing.T) {
		mod, ok := registry.GetByName("ModA")
		if !ok {
			t.Fatal("expected ModA to be present")
		}
		if mod.Name != "ModA" {
			t.Errorf("Name = %q; want ModA", mod.Name)
		}
	})

	t.Run("hex checksums convert to u64", func(t *testing.T) {
		mod, _ := registry.GetByName("ModA")
		if len(mod.Checksums) != 1 || mod.Checksums[0] != 0xf437bf0515368130 {
			t.Errorf("Checksums = %v; want [0xf437bf0515368130]", mod.Checksums)
		}
	})

	t.Run("id_to_names inverts multiple names sharing an id", func(t *testing.T) {
		names := registry.NamesByIDs([]uint32{42})
		if len(names) != 2 {
			t.Fatalf("names = %v; want 2 entries", names)
		}
		if _, ok := names["ModA"]; !ok {
			t.Error("expected ModA in the inverted index for id 42")
		}
		if _, ok := names["ModB"]; !ok {
			t.Error("expected ModB in the inverted index for id 42")
		}
	})

	t.Run("Remove claims exactly once", func(t *testing.T) {
		mod, ok := registry.Remove("ModA")
		if !ok || mod.Name != "ModA" {
			t.Fatalf("Remove(ModA) = %+v, %v", mod, ok)
		}
		if _, ok := registry.GetByName("ModA"); ok {
			t.Error("expected ModA to be gone after Remove")
		}
	})
}

func TestParseRegistryRejectsBadChecksum(t *testing.T) {
	raw := []byte(`
BadMod:
  Version: 1.0.0
  URL: https://gamebanana.com/mmdl/1
  Size: 1
  xxHash:
    - not-hex
  GameBananaId: 1
`)
	if _, err := ParseRegistry(raw); err == nil {
		t.Fatal("expected an error for a non-hex checksum")
	}
}
