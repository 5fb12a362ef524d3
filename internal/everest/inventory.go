package everest

import (
	"bufio"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LocalMod is one archive discovered in the mods directory whose manifest
// parsed successfully.
type LocalMod struct {
	Path     string
	Manifest ModManifest

	checksumOnce sync.Once
	checksum     uint64
	checksumErr  error
}

// Name is a convenience accessor mirroring the manifest's primary name,
// used throughout the update/dependency flows.
func (m *LocalMod) Name() string { return m.Manifest.Name }

// Checksum lazily hashes the archive's bytes on first call and caches the
// result; stable for the file's (inode, mtime, size) triple as long as the
// file is not rewritten between calls within one process.
func (m *LocalMod) Checksum() (uint64, error) {
	m.checksumOnce.Do(func() {
		m.checksum, m.checksumErr = HashFile(m.Path)
	})
	return m.checksum, m.checksumErr
}

// LoadInventory lists dir non-recursively, filters to `.zip` regular files
// (ASCII case-insensitive extension match), parses each one's manifest in
// parallel, and returns the successfully parsed mods sorted by name. A
// single broken archive is logged via logf and skipped; it does not abort
// the scan.
func LoadInventory(dir string, logf func(format string, args ...any)) ([]*LocalMod, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading mods directory %s: %v", ErrPathsUnavailable, dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	results := make([]*LocalMod, len(paths))
	eg := new(errgroup.Group)
	eg.SetLimit(max(runtime.NumCPU(), 1))

	for i, path := range paths {
		eg.Go(func() error {
			mod, err := loadOneMod(path)
			if err != nil {
				logf("skipping %s: %v", filepath.Base(path), err)
				return nil
			}
			results[i] = mod
			return nil
		})
	}
	_ = eg.Wait()

	mods := make([]*LocalMod, 0, len(results))
	for _, m := range results {
		if m != nil {
			mods = append(mods, m)
		}
	}

	slices.SortFunc(mods, func(a, b *LocalMod) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	return mods, nil
}

func loadOneMod(path string) (*LocalMod, error) {
	raw, err := ExtractEntry(path, manifestPrimaryName, manifestFallbackName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMissing, err)
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return nil, err
	}
	return &LocalMod{Path: path, Manifest: manifest}, nil
}

// LoadBlacklist reads the optional updaterblacklist.txt from dir, returning
// the set of basenames it lists. A missing file is not an error: it yields
// an empty set.
func LoadBlacklist(dir string) (map[string]struct{}, error) {
	path := filepath.Join(dir, "updaterblacklist.txt")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("reading blacklist %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	set := map[string]struct{}{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		set[filepath.Base(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading blacklist %s: %w", path, err)
	}
	return set, nil
}

// FilterBlacklisted removes any mod whose archive basename appears in
// blacklist, preserving order.
func FilterBlacklisted(mods []*LocalMod, blacklist map[string]struct{}) []*LocalMod {
	if len(blacklist) == 0 {
		return mods
	}
	out := make([]*LocalMod, 0, len(mods))
	for _, m := range mods {
		if _, blocked := blacklist[filepath.Base(m.Path)]; blocked {
			continue
		}
		out = append(out, m)
	}
	return out
}
