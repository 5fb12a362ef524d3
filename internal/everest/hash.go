package everest

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// hashReadBufSize matches the 64 KiB chunk size the reference implementation
// reads archives in; large enough to amortise syscalls, small enough to
// avoid holding whole archives in memory.
const hashReadBufSize = 64 * 1024

// NewStreamHasher returns a fresh XXH64 accumulator (seed 0) that can be
// used as an io.Writer, so callers can tee a copy/read loop through it
// without buffering the source bytes.
func NewStreamHasher() *xxhash.Digest {
	return xxhash.New()
}

// FormatHash renders a 64-bit digest as the registry's comparison format:
// exactly 16 lowercase hex characters, zero-padded.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// HashFile streams the whole file at path through XXH64 and returns its
// digest. Used by the cache sync path (component E) whenever an entry is
// missing or its (mtime, size) no longer match the file on disk.
func HashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	buf := make([]byte, hashReadBufSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			// hash.Hash.Write never errors.
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading %s for hashing: %w", path, err)
		}
	}
	return h.Sum64(), nil
}
