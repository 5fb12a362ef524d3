package everest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatHash(t *testing.T) {
	tests := []struct {
		name     string
		hash     uint64
		expected string
	}{
		{"zero", 0, "0000000000000000"},
		{"small value is zero-padded", 0xabc, "0000000000000abc"},
		{"max value", 0xffffffffffffffff, "ffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatHash(tt.hash)
			if result != tt.expected {
				t.Errorf("FormatHash(%#x) = %q; want %q", tt.hash, result, tt.expected)
			}
			if len(result) != 16 {
				t.Errorf("FormatHash(%#x) has length %d; want 16", tt.hash, len(result))
			}
		})
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("matches streaming hasher over the same bytes", func(t *testing.T) {
		path := filepath.Join(dir, "data.bin")
		content := []byte("the quick brown fox jumps over the lazy dog")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		want := NewStreamHasher()
		_, _ = want.Write(content)

		got, err := HashFile(path)
		if err != nil {
			t.Fatalf("HashFile() returned unexpected error: %v", err)
		}
		if got != want.Sum64() {
			t.Errorf("HashFile() = %#x; want %#x", got, want.Sum64())
		}
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		_, err := HashFile(filepath.Join(dir, "does-not-exist.bin"))
		if err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})

	t.Run("empty file hashes deterministically", func(t *testing.T) {
		path := filepath.Join(dir, "empty.bin")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
		h1, err := HashFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h2, err := HashFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h1 != h2 {
			t.Errorf("hashing the same empty file twice gave different results: %#x vs %#x", h1, h2)
		}
	})
}
