package everest

import "fmt"

// UpdateInfo is the display-facing record for one mod that needs updating.
type UpdateInfo struct {
	Name              string
	CurrentVersion    string
	AvailableVersion  string
}

func (u UpdateInfo) String() string {
	return fmt.Sprintf("* %s: %s -> %s", u.Name, u.CurrentVersion, u.AvailableVersion)
}

// WorkItem pairs a local mod with the remote record claimed for it, ready
// to hand to the downloader.
type WorkItem struct {
	Mod    RemoteMod
	Local  *LocalMod
}

// DetectUpdates compares every local mod's cached hash against the
// registry's accepted checksum set. A mod is skipped if it is not in the
// registry, if its inode has no cache entry (unexpected; logged), or if its
// cached hash is already accepted. Otherwise the registry's record for it
// is claimed (removed) and a work item plus display record are produced;
// claiming guarantees a mod with multiple same-named local archives is only
// updated once, first local mod wins. Work-set ordering follows localMods.
func DetectUpdates(localMods []*LocalMod, cache *FileCache, registry *Registry, logf func(format string, args ...any)) ([]WorkItem, []UpdateInfo) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	work := make([]WorkItem, 0, len(localMods))
	info := make([]UpdateInfo, 0, len(localMods))

	for _, local := range localMods {
		name := local.Name()

		remote, ok := registry.GetByName(name)
		if !ok {
			continue
		}

		inode, err := Inode(local.Path)
		if err != nil {
			logf("skipping %s: could not determine inode: %v", name, err)
			continue
		}

		entry, cached := cache.Lookup(inode)
		if !cached {
			logf("skipping %s: no cache entry for inode %d", name, inode)
			continue
		}

		if hashAccepted(entry.Hash, remote.Checksums) {
			continue
		}

		claimed, ok := registry.Remove(name)
		if !ok {
			// Another local archive with the same name already claimed it.
			continue
		}

		work = append(work, WorkItem{Mod: claimed, Local: local})
		info = append(info, UpdateInfo{
			Name:             name,
			CurrentVersion:   local.Manifest.Version,
			AvailableVersion: claimed.Version,
		})
	}

	return work, info
}

func hashAccepted(hash uint64, accepted []uint64) bool {
	for _, a := range accepted {
		if a == hash {
			return true
		}
	}
	return false
}
