package everest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
)

// testZipEntry is one file to place in a hand-built golden ZIP fixture.
type testZipEntry struct {
	name     string
	data     []byte
	deflate  bool
}

// buildTestZip writes a minimal valid ZIP (local file headers, central
// directory, EOCD) to path, without using archive/zip, so the byte layout
// is exactly what ExtractEntry expects to parse.
func buildTestZip(t *testing.T, path string, entries []testZipEntry) {
	t.Helper()

	var buf bytes.Buffer
	type cdInfo struct {
		name             string
		method           uint16
		compressedSize   uint32
		uncompressedSize uint32
		offset           uint32
	}
	var cds []cdInfo

	for _, e := range entries {
		offset := uint32(buf.Len())

		var compressed []byte
		method := uint16(methodStored)
		if e.deflate {
			var out bytes.Buffer
			w, err := flate.NewWriter(&out, flate.DefaultCompression)
			if err != nil {
				t.Fatalf("creating flate writer: %v", err)
			}
			if _, err := w.Write(e.data); err != nil {
				t.Fatalf("writing deflate stream: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("closing flate writer: %v", err)
			}
			compressed = out.Bytes()
			method = methodDeflate
		} else {
			compressed = e.data
		}

		lfh := make([]byte, lfhFixedSize)
		binary.LittleEndian.PutUint32(lfh[0:], 0x04034b50)
		binary.LittleEndian.PutUint16(lfh[10:], method)
		binary.LittleEndian.PutUint32(lfh[18:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(lfh[22:], uint32(len(e.data)))
		binary.LittleEndian.PutUint16(lfh[26:], uint16(len(e.name)))

		buf.Write(lfh)
		buf.WriteString(e.name)
		buf.Write(compressed)

		cds = append(cds, cdInfo{
			name:             e.name,
			method:           method,
			compressedSize:   uint32(len(compressed)),
			uncompressedSize: uint32(len(e.data)),
			offset:           offset,
		})
	}

	cdStart := uint32(buf.Len())
	for _, cd := range cds {
		hdr := make([]byte, cdfhFixedSize)
		binary.LittleEndian.PutUint32(hdr[0:], 0x02014b50)
		binary.LittleEndian.PutUint16(hdr[10:], cd.method)
		binary.LittleEndian.PutUint32(hdr[20:], cd.compressedSize)
		binary.LittleEndian.PutUint32(hdr[24:], cd.uncompressedSize)
		binary.LittleEndian.PutUint16(hdr[28:], uint16(len(cd.name)))
		binary.LittleEndian.PutUint32(hdr[42:], cd.offset)
		buf.Write(hdr)
		buf.WriteString(cd.name)
	}
	cdSize := uint32(buf.Len()) - cdStart

	eocd := make([]byte, eocdFixedSize)
	binary.LittleEndian.PutUint32(eocd[0:], 0x06054b50)
	binary.LittleEndian.PutUint16(eocd[8:], uint16(len(cds)))
	binary.LittleEndian.PutUint16(eocd[10:], uint16(len(cds)))
	binary.LittleEndian.PutUint32(eocd[12:], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:], cdStart)
	buf.Write(eocd)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing golden zip: %v", err)
	}
}

func TestExtractEntry(t *testing.T) {
	dir := t.TempDir()

	t.Run("stored entry round-trips exactly", func(t *testing.T) {
		path := filepath.Join(dir, "stored.zip")
		buildTestZip(t, path, []testZipEntry{
			{name: "everest.yaml", data: []byte("- Name: Stored\n  Version: 1.0.0\n")},
		})

		got, err := ExtractEntry(path, "everest.yaml", "everest.yml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "- Name: Stored\n  Version: 1.0.0\n"
		if string(got) != want {
			t.Errorf("ExtractEntry() = %q; want %q", got, want)
		}
	})

	t.Run("deflate entry inflates exactly", func(t *testing.T) {
		path := filepath.Join(dir, "deflate.zip")
		content := bytes.Repeat([]byte("everest yaml manifest contents "), 50)
		buildTestZip(t, path, []testZipEntry{
			{name: "everest.yaml", data: content, deflate: true},
		})

		got, err := ExtractEntry(path, "everest.yaml", "everest.yml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("inflated entry mismatch: got %d bytes, want %d bytes", len(got), len(content))
		}
	})

	t.Run("falls back to the secondary name", func(t *testing.T) {
		path := filepath.Join(dir, "fallback.zip")
		buildTestZip(t, path, []testZipEntry{
			{name: "everest.yml", data: []byte("- Name: Fallback\n  Version: 2.0.0\n")},
		})

		got, err := ExtractEntry(path, "everest.yaml", "everest.yml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "- Name: Fallback\n  Version: 2.0.0\n" {
			t.Errorf("ExtractEntry() = %q; want fallback contents", got)
		}
	})

	t.Run("missing entry is reported", func(t *testing.T) {
		path := filepath.Join(dir, "missing.zip")
		buildTestZip(t, path, []testZipEntry{
			{name: "other.txt", data: []byte("not a manifest")},
		})

		_, err := ExtractEntry(path, "everest.yaml", "everest.yml")
		if err == nil {
			t.Fatal("expected an error when neither name is present")
		}
	})

	t.Run("multiple entries: correct one is located by name", func(t *testing.T) {
		path := filepath.Join(dir, "multi.zip")
		buildTestZip(t, path, []testZipEntry{
			{name: "icon.png", data: []byte("binary-ish data")},
			{name: "everest.yaml", data: []byte("- Name: Multi\n  Version: 3.0.0\n")},
			{name: "Dialog/English.txt", data: []byte("dialog text")},
		})

		got, err := ExtractEntry(path, "everest.yaml", "everest.yml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "- Name: Multi\n  Version: 3.0.0\n" {
			t.Errorf("ExtractEntry() = %q; want Multi manifest", got)
		}
	})
}
