package everest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// cacheMagic tags the on-disk cache format so a future incompatible layout
// refuses to be misread as valid records instead of silently corrupting.
var cacheMagic = [4]byte{'E', 'F', 'C', 1}

// cacheRecordSize is the fixed on-disk size of one CacheEntry: inode(8) +
// mtime(8) + size(8) + hash(8) + nameLen(2) + name(cacheMaxName).
const (
	cacheMaxName   = 256
	cacheRecordSize = 8 + 8 + 8 + 8 + 2 + cacheMaxName
)

// CacheEntry records everything needed to decide, without reopening the
// file, whether a mod archive's hash is still valid.
type CacheEntry struct {
	FileName string
	Mtime    int64
	Size     uint64
	Hash     uint64
}

// FileCache is a persistent map from filesystem inode to the last-known
// hash state of the archive occupying it. Keying by inode (rather than
// path) lets a rename be recognised as "same file" and an inode reuse
// (delete+recreate) be recognised as "needs rehash".
type FileCache struct {
	path    string
	entries map[uint64]CacheEntry
}

// LoadCache reads path's cache file if present. A missing file yields an
// empty cache; a corrupt or unreadable file is treated identically,
// silently, per the format's crash-safety contract, rather than failing
// the whole run over a stale cache.
func LoadCache(path string) *FileCache {
	c := &FileCache{path: path, entries: map[uint64]CacheEntry{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	entries, err := decodeCache(raw)
	if err != nil {
		return c
	}
	c.entries = entries
	return c
}

func decodeCache(raw []byte) (map[uint64]CacheEntry, error) {
	if len(raw) < 4+8 {
		return nil, fmt.Errorf("%w: truncated header", ErrCacheCorrupt)
	}
	if [4]byte(raw[0:4]) != cacheMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCacheCorrupt)
	}
	count := binary.LittleEndian.Uint64(raw[4:12])
	body := raw[12:]
	if uint64(len(body)) != count*cacheRecordSize {
		return nil, fmt.Errorf("%w: record count does not match body length", ErrCacheCorrupt)
	}

	entries := make(map[uint64]CacheEntry, count)
	for i := uint64(0); i < count; i++ {
		rec := body[i*cacheRecordSize : (i+1)*cacheRecordSize]
		ino := binary.LittleEndian.Uint64(rec[0:8])
		entry := CacheEntry{
			Mtime: int64(binary.LittleEndian.Uint64(rec[8:16])),
			Size:  binary.LittleEndian.Uint64(rec[16:24]),
			Hash:  binary.LittleEndian.Uint64(rec[24:32]),
		}
		nameLen := binary.LittleEndian.Uint16(rec[32:34])
		if int(nameLen) > cacheMaxName {
			return nil, fmt.Errorf("%w: name length out of range", ErrCacheCorrupt)
		}
		entry.FileName = string(rec[34 : 34+int(nameLen)])
		entries[ino] = entry
	}
	return entries, nil
}

func encodeCache(entries map[uint64]CacheEntry) ([]byte, error) {
	out := make([]byte, 12, 12+len(entries)*cacheRecordSize)
	copy(out[0:4], cacheMagic[:])
	binary.LittleEndian.PutUint64(out[4:12], uint64(len(entries)))

	for ino, entry := range entries {
		if len(entry.FileName) > cacheMaxName {
			return nil, fmt.Errorf("cache entry name %q exceeds %d bytes", entry.FileName, cacheMaxName)
		}
		rec := make([]byte, cacheRecordSize)
		binary.LittleEndian.PutUint64(rec[0:8], ino)
		binary.LittleEndian.PutUint64(rec[8:16], uint64(entry.Mtime))
		binary.LittleEndian.PutUint64(rec[16:24], entry.Size)
		binary.LittleEndian.PutUint64(rec[24:32], entry.Hash)
		binary.LittleEndian.PutUint16(rec[32:34], uint16(len(entry.FileName)))
		copy(rec[34:34+len(entry.FileName)], entry.FileName)
		out = append(out, rec...)
	}
	return out, nil
}

// save persists the cache atomically-enough for its stated crash contract:
// a plain create-write-truncate at mode 0600, not a rename-based swap,
// matching the format's documented "partial write may corrupt, reader
// silently treats corrupt as empty" policy.
func (c *FileCache) save() error {
	raw, err := encodeCache(c.entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return os.WriteFile(c.path, raw, 0o600)
}

// Sync walks dir's `.zip` regular files, rehashing any whose (mtime, size)
// no longer match their cached entry or that have no entry at all, then
// drops any cached inode no longer present. It persists to disk only if
// the result differs from what was loaded. Returns whether it changed.
func (c *FileCache) Sync(dir string) (dirty bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("%w: reading mods directory %s: %v", ErrPathsUnavailable, dir, err)
	}

	currentKeys := map[uint64]struct{}{}

	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return dirty, fmt.Errorf("stat %s: %w", path, err)
		}
		stat, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			return dirty, fmt.Errorf("%w: inode metadata unavailable for %s", ErrPathsUnavailable, path)
		}
		ino := stat.Ino
		currentKeys[ino] = struct{}{}

		mtime := info.ModTime().Unix()
		size := uint64(info.Size())

		existing, found := c.entries[ino]
		if found && existing.Mtime == mtime && existing.Size == size {
			continue
		}

		hash, err := HashFile(path)
		if err != nil {
			return dirty, fmt.Errorf("hashing %s: %w", path, err)
		}
		c.entries[ino] = CacheEntry{FileName: e.Name(), Mtime: mtime, Size: size, Hash: hash}
		dirty = true
	}

	for ino := range c.entries {
		if _, ok := currentKeys[ino]; !ok {
			delete(c.entries, ino)
			dirty = true
		}
	}

	if dirty {
		if err := c.save(); err != nil {
			return dirty, fmt.Errorf("persisting cache: %w", err)
		}
	}
	return dirty, nil
}

// Lookup returns the cached entry for inode, if any.
func (c *FileCache) Lookup(inode uint64) (CacheEntry, bool) {
	entry, ok := c.entries[inode]
	return entry, ok
}

// Inode returns the filesystem inode number backing path, the cache key
// used throughout component E and component H.
func Inode(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("%w: inode metadata unavailable for %s", ErrPathsUnavailable, path)
	}
	return stat.Ino, nil
}
