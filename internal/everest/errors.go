// Package everest implements the content-integrity update pipeline for a
// local Celeste/Everest mods directory: ZIP manifest extraction, a
// persistent file-hash cache, the GameBanana registry, dependency
// resolution, and mirror-failover downloads.
package everest

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Components wrap these with fmt.Errorf("...: %w", ...)
// so callers can errors.Is/errors.As against a stable taxonomy regardless of
// which archive, mod, or mirror produced the failure.
var (
	ErrArgumentInvalid    = errors.New("argument invalid")
	ErrPathsUnavailable   = errors.New("paths unavailable")
	ErrZipMalformed       = errors.New("zip malformed")
	ErrZipEntryMissing    = errors.New("zip entry missing")
	ErrManifestMissing    = errors.New("manifest missing")
	ErrManifestParse      = errors.New("manifest parse failed")
	ErrRegistryFetch      = errors.New("registry fetch failed")
	ErrRegistryParse      = errors.New("registry parse failed")
	ErrCacheCorrupt       = errors.New("cache corrupt")
	ErrUnsupportedCompression = errors.New("unsupported compression method")
)

// ChecksumMismatchError reports a single mirror attempt whose streamed bytes
// hashed to something outside the registry's accepted set. It is local to
// one mirror attempt: the downloader catches it and advances to the next
// mirror rather than surfacing it directly.
type ChecksumMismatchError struct {
	Name     string
	Computed uint64
	Accepted []uint64
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %q: computed %016x, accepted %v", e.Name, e.Computed, hexList(e.Accepted))
}

func hexList(hashes []uint64) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = FormatHash(h)
	}
	return out
}

// DownloadFailedError reports that every mirror in priority order was
// attempted and exhausted without a verified match.
type DownloadFailedError struct {
	Name string
	Err  error
}

func (e *DownloadFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download failed for %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("download failed for %q: all mirrors exhausted", e.Name)
}

func (e *DownloadFailedError) Unwrap() error { return e.Err }

// UnsupportedCompressionError names the local file header's compression
// method when it is neither 0 (stored) nor 8 (deflate).
type UnsupportedCompressionError struct {
	Method uint16
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnsupportedCompression, e.Method)
}

func (e *UnsupportedCompressionError) Unwrap() error { return ErrUnsupportedCompression }

// DecompressedSizeMismatchError reports that a deflate stream produced
// fewer bytes than the CDFH's recorded uncompressed size. Bytes beyond that
// size are not read, so a longer stream is not reported.
type DecompressedSizeMismatchError struct {
	Want, Got int
}

func (e *DecompressedSizeMismatchError) Error() string {
	return fmt.Sprintf("decompressed size mismatch: want %d bytes, got %d", e.Want, e.Got)
}
