package everest

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// Fixed record sizes and signatures for the three ZIP records this reader
// understands. Everything else in the archive, the actual file table for
// every other entry, the ZIP64 locator, multi-disk fields, is intentionally
// never parsed.
const (
	eocdFixedSize   = 22
	eocdMaxComment  = 65535
	eocdMaxSearch   = eocdFixedSize + eocdMaxComment
	cdfhFixedSize   = 46
	lfhFixedSize    = 30

	methodStored  = 0
	methodDeflate = 8
)

var (
	eocdSignature = [4]byte{0x50, 0x4b, 0x05, 0x06}
	cdfhSignature = [4]byte{0x50, 0x4b, 0x01, 0x02}
)

// eocdRecord is the subset of the End-of-Central-Directory record needed to
// locate the central directory and bound how many CDFH records to scan.
type eocdRecord struct {
	diskNumber          uint16
	cdStartDisk         uint16
	entriesOnThisDisk   uint16
	totalEntries        uint16
	centralDirSize      uint32
	centralDirOffset    uint32
}

// findEOCD locates the EOCD record in f, whose total size is fileSize.
//
// It first tries the minimal-size fast path (no comment); on failure it
// scans backwards through the maximum possible comment window looking for
// the rightmost signature match whose recorded comment length exactly
// accounts for the remaining bytes, the same disambiguation rule the ZIP
// format needs to tell a real EOCD apart from four signature bytes that
// happen to appear inside an earlier comment.
func findEOCD(f io.ReaderAt, fileSize int64) (eocdRecord, error) {
	if fileSize < eocdFixedSize {
		return eocdRecord{}, fmt.Errorf("%w: file too small for EOCD (%d bytes)", ErrZipMalformed, fileSize)
	}

	buf := make([]byte, eocdFixedSize)
	if _, err := f.ReadAt(buf, fileSize-eocdFixedSize); err != nil {
		return eocdRecord{}, fmt.Errorf("reading EOCD fast path: %w", err)
	}
	if hasSignature(buf, eocdSignature) {
		return parseEOCD(buf)
	}

	searchSize := int64(eocdMaxSearch)
	if fileSize < searchSize {
		searchSize = fileSize
	}
	window := make([]byte, searchSize)
	if _, err := f.ReadAt(window, fileSize-searchSize); err != nil {
		return eocdRecord{}, fmt.Errorf("reading EOCD search window: %w", err)
	}

	for pos := len(window) - 4; pos >= 0; pos-- {
		if !hasSignature(window[pos:pos+4], eocdSignature) {
			continue
		}
		if pos+eocdFixedSize > len(window) {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(window[pos+20:]))
		if pos+eocdFixedSize+commentLen == len(window) {
			return parseEOCD(window[pos : pos+eocdFixedSize])
		}
	}

	return eocdRecord{}, fmt.Errorf("%w: EOCD signature not found", ErrZipMalformed)
}

func hasSignature(buf []byte, sig [4]byte) bool {
	return len(buf) >= 4 && buf[0] == sig[0] && buf[1] == sig[1] && buf[2] == sig[2] && buf[3] == sig[3]
}

func parseEOCD(buf []byte) (eocdRecord, error) {
	rec := eocdRecord{
		diskNumber:        binary.LittleEndian.Uint16(buf[4:]),
		cdStartDisk:       binary.LittleEndian.Uint16(buf[6:]),
		entriesOnThisDisk: binary.LittleEndian.Uint16(buf[8:]),
		totalEntries:      binary.LittleEndian.Uint16(buf[10:]),
		centralDirSize:    binary.LittleEndian.Uint32(buf[12:]),
		centralDirOffset:  binary.LittleEndian.Uint32(buf[16:]),
	}
	if rec.diskNumber != 0 || rec.cdStartDisk != 0 {
		return eocdRecord{}, fmt.Errorf("%w: multi-disk archives are not supported", ErrZipMalformed)
	}
	if rec.entriesOnThisDisk != rec.totalEntries {
		return eocdRecord{}, fmt.Errorf("%w: entries-on-disk does not match total-entries", ErrZipMalformed)
	}
	return rec, nil
}

// cdfhRecord is the subset of a Central Directory File Header needed to
// locate and decode the corresponding local file entry.
type cdfhRecord struct {
	compressionMethod uint16
	compressedSize    uint32
	uncompressedSize  uint32
	nameLen           int
	extraLen          int
	commentLen        int
	lfhOffset         uint32
}

// totalLen returns the full on-disk size of this CDFH record, fixed portion
// plus its three variable-length trailers.
func (c cdfhRecord) totalLen() int {
	return cdfhFixedSize + c.nameLen + c.extraLen + c.commentLen
}

// findCDFHByName scans buf (exactly centralDirSize bytes starting at the
// EOCD's recorded offset) for a header whose name matches target, byte-exact
// with no case folding, advancing by each record's total length on a miss.
func findCDFHByName(buf []byte, totalEntries uint16, target []byte) (cdfhRecord, error) {
	offset := 0
	for i := uint16(0); i < totalEntries; i++ {
		if len(buf)-offset < cdfhFixedSize || !hasSignature(buf[offset:], cdfhSignature) {
			break
		}
		rec := cdfhRecord{
			compressionMethod: binary.LittleEndian.Uint16(buf[offset+10:]),
			compressedSize:    binary.LittleEndian.Uint32(buf[offset+20:]),
			uncompressedSize:  binary.LittleEndian.Uint32(buf[offset+24:]),
			nameLen:           int(binary.LittleEndian.Uint16(buf[offset+28:])),
			extraLen:          int(binary.LittleEndian.Uint16(buf[offset+30:])),
			commentLen:        int(binary.LittleEndian.Uint16(buf[offset+32:])),
			lfhOffset:         binary.LittleEndian.Uint32(buf[offset+42:]),
		}
		total := rec.totalLen()
		if len(buf)-offset < total {
			return cdfhRecord{}, fmt.Errorf("%w: truncated central directory entry", ErrZipMalformed)
		}

		nameStart := offset + cdfhFixedSize
		name := buf[nameStart : nameStart+rec.nameLen]
		if bytesEqual(name, target) {
			return rec, nil
		}
		offset += total
	}
	return cdfhRecord{}, ErrZipEntryMissing
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// extractLocalFile seeks to cdfh's local file header, validates/skips it,
// and returns the decompressed entry bytes for compression methods 0
// (stored) and 8 (deflate).
func extractLocalFile(f *os.File, cdfh cdfhRecord) ([]byte, error) {
	if _, err := f.Seek(int64(cdfh.lfhOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to local file header: %w", err)
	}

	lfh := make([]byte, lfhFixedSize)
	if _, err := io.ReadFull(f, lfh); err != nil {
		return nil, fmt.Errorf("reading local file header: %w", err)
	}

	nameLen := int(binary.LittleEndian.Uint16(lfh[26:]))
	extraLen := int(binary.LittleEndian.Uint16(lfh[28:]))
	if _, err := f.Seek(int64(nameLen+extraLen), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("skipping local file header trailer: %w", err)
	}

	switch cdfh.compressionMethod {
	case methodStored:
		buf := make([]byte, cdfh.compressedSize)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("reading stored entry: %w", err)
		}
		return buf, nil
	case methodDeflate:
		limited := io.LimitReader(f, int64(cdfh.compressedSize))
		decoder := flate.NewReader(limited)
		defer func() { _ = decoder.Close() }()

		buf := make([]byte, cdfh.uncompressedSize)
		n, err := io.ReadFull(decoder, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("inflating entry: %w", err)
		}
		if n != int(cdfh.uncompressedSize) {
			return nil, &DecompressedSizeMismatchError{Want: int(cdfh.uncompressedSize), Got: n}
		}
		return buf, nil
	default:
		return nil, &UnsupportedCompressionError{Method: cdfh.compressionMethod}
	}
}

// ExtractEntry opens the ZIP archive at path and returns the decompressed
// bytes of the first entry whose name byte-exactly matches primaryName; if
// none is found and fallbackName is non-empty, the fallback is tried next.
// The only reads performed are the EOCD window, the central directory, and
// the single matched local file entry.
func ExtractEntry(path, primaryName, fallbackName string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive %s: %w", path, err)
	}

	eocd, err := findEOCD(f, info.Size())
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(int64(eocd.centralDirOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to central directory: %w", err)
	}
	cd := make([]byte, eocd.centralDirSize)
	if _, err := io.ReadFull(f, cd); err != nil {
		return nil, fmt.Errorf("reading central directory: %w", err)
	}

	cdfh, err := findCDFHByName(cd, eocd.totalEntries, []byte(primaryName))
	if err != nil {
		if fallbackName == "" {
			return nil, fmt.Errorf("%w: %s", ErrZipEntryMissing, primaryName)
		}
		cdfh, err = findCDFHByName(cd, eocd.totalEntries, []byte(fallbackName))
		if err != nil {
			return nil, fmt.Errorf("%w: %s (also tried %s)", ErrZipEntryMissing, primaryName, fallbackName)
		}
	}

	return extractLocalFile(f, cdfh)
}
