package everest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Manager wires components A through J into the list/install/update/show
// flows the CLI dispatches to.
type Manager struct {
	Config Config
	Client *http.Client
	Logf   func(format string, args ...any)
}

func (m *Manager) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}

// httpConnectTimeout bounds connection establishment; there is no per-chunk
// timeout once a response is streaming.
const httpConnectTimeout = 5 * time.Second

func (m *Manager) httpClient() *http.Client {
	if m.Client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{Timeout: httpConnectTimeout}).DialContext
		m.Client = &http.Client{Transport: transport}
	}
	return m.Client
}

// LocalInventory loads and blacklist-filters the mods directory's archives.
func (m *Manager) LocalInventory() ([]*LocalMod, error) {
	blacklist, err := LoadBlacklist(m.Config.ModsDir)
	if err != nil {
		return nil, err
	}
	mods, err := LoadInventory(m.Config.ModsDir, m.logf)
	if err != nil {
		return nil, err
	}
	return FilterBlacklisted(mods, blacklist), nil
}

// LoadOnlineDatabase fetches the registry and dependency graph, treated as
// one logical step by the dispatcher.
func (m *Manager) LoadOnlineDatabase(ctx context.Context) (*Registry, DependencyGraph, error) {
	registry, err := FetchRegistry(ctx, m.httpClient(), m.Config.UseAPIMirror)
	if err != nil {
		return nil, nil, err
	}
	graph, err := FetchDependencyGraph(ctx, m.httpClient())
	if err != nil {
		return nil, nil, err
	}
	return registry, graph, nil
}

// List returns the locally installed mods, sorted by name, for the `list`
// flow (component K, plain inventory path, no registry contact).
func (m *Manager) List() ([]*LocalMod, error) {
	return m.LocalInventory()
}

// Update runs the cache sync, registry fetch, and detector to produce the
// set of mods needing an update, without downloading anything.
func (m *Manager) Update(ctx context.Context) ([]WorkItem, []UpdateInfo, error) {
	localMods, err := m.LocalInventory()
	if err != nil {
		return nil, nil, err
	}

	cache := LoadCache(m.Config.CachePath)
	if _, err := cache.Sync(m.Config.ModsDir); err != nil {
		return nil, nil, fmt.Errorf("syncing hash cache: %w", err)
	}

	registry, _, err := m.LoadOnlineDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}

	work, info := DetectUpdates(localMods, cache, registry, m.logf)
	return work, info, nil
}

// InstallUpdates runs Update and then downloads every item it finds.
func (m *Manager) InstallUpdates(ctx context.Context, onProgress ProgressFunc) ([]UpdateInfo, []error, error) {
	work, info, err := m.Update(ctx)
	if err != nil {
		return nil, nil, err
	}
	downloader := &Downloader{
		Client:     m.httpClient(),
		ModsDir:    m.Config.ModsDir,
		MirrorIDs:  m.Config.MirrorIDs,
		Jobs:       m.Config.Jobs,
		OnProgress: onProgress,
		Logf:       m.logf,
	}
	errs := downloader.Run(ctx, work)
	return info, errs, nil
}

// Install resolves each GameBanana mod-page URL to a registry record,
// expands each to its transitive required dependencies, subtracts mods
// already present locally, and downloads the remainder.
func (m *Manager) Install(ctx context.Context, urls []string, onProgress ProgressFunc) ([]string, []error, error) {
	ids := make([]uint32, 0, len(urls))
	for _, u := range urls {
		id, err := ParseModPageURL(u)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}

	registry, graph, err := m.LoadOnlineDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Each id resolves to one name; when several mods share an id, the
	// lexicographically first is chosen, as in `show`.
	names := map[string]struct{}{}
	for _, id := range ids {
		if name, _, err := resolveShowByID(registry, id); err == nil {
			names[name] = struct{}{}
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%w: none of the given URLs matched a registry entry", ErrArgumentInvalid)
	}

	closure := map[string]struct{}{}
	for name := range names {
		for dep := range graph.CollectDependenciesBFS(name) {
			closure[dep] = struct{}{}
		}
	}

	localMods, err := m.LocalInventory()
	if err != nil {
		return nil, nil, err
	}
	installed := map[string]struct{}{}
	for _, mod := range localMods {
		installed[mod.Name()] = struct{}{}
	}

	var work []WorkItem
	var installing []string
	for name := range closure {
		if _, already := installed[name]; already {
			continue
		}
		mod, ok := registry.GetByName(name)
		if !ok {
			continue
		}
		work = append(work, WorkItem{Mod: mod})
		installing = append(installing, name)
	}
	sort.Strings(installing)

	downloader := &Downloader{
		Client:     m.httpClient(),
		ModsDir:    m.Config.ModsDir,
		MirrorIDs:  m.Config.MirrorIDs,
		Jobs:       m.Config.Jobs,
		OnProgress: onProgress,
		Logf:       m.logf,
	}
	errs := downloader.Run(ctx, work)
	return installing, errs, nil
}

// gamebananaModPagePrefix is the only URL form `install`'s positional
// arguments and `show`'s URL form accept.
const gamebananaModPagePrefix = "https://gamebanana.com/mods/"

// ParseModPageURL validates url is of the form
// https://gamebanana.com/mods/<u32> and returns the extracted id.
func ParseModPageURL(url string) (uint32, error) {
	rest, ok := strings.CutPrefix(url, gamebananaModPagePrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q must start with %s", ErrArgumentInvalid, url, gamebananaModPagePrefix)
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: last path segment must be a non-negative 32-bit integer: %v", ErrArgumentInvalid, url, err)
	}
	return uint32(id), nil
}

// ShowResult is the resolved record `show` prints.
type ShowResult struct {
	Name         string
	Version      string
	GameBananaID uint32
	Dependencies []string
}

// Show resolves a bare mod name, a GameBanana mods-page URL, or a bare
// numeric GameBanana id to a single registry record and its direct
// required-dependency names. It never touches the local inventory, the
// hash cache, or the downloader.
func (m *Manager) Show(ctx context.Context, arg string) (*ShowResult, error) {
	registry, graph, err := m.LoadOnlineDatabase(ctx)
	if err != nil {
		return nil, err
	}

	name, mod, err := resolveShowArg(registry, arg)
	if err != nil {
		return nil, err
	}

	var deps []string
	if dep, ok := graph[name]; ok {
		for _, d := range dep.Dependencies {
			deps = append(deps, d.Name)
		}
	}

	return &ShowResult{
		Name:         name,
		Version:      mod.Version,
		GameBananaID: mod.GameBananaID,
		Dependencies: deps,
	}, nil
}

func resolveShowArg(registry *Registry, arg string) (string, RemoteMod, error) {
	if id, err := ParseModPageURL(arg); err == nil {
		return resolveShowByID(registry, id)
	}
	if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return resolveShowByID(registry, uint32(id))
	}
	if mod, ok := registry.GetByName(arg); ok {
		return arg, mod, nil
	}
	return "", RemoteMod{}, fmt.Errorf("%w: %q not found in registry", ErrArgumentInvalid, arg)
}

func resolveShowByID(registry *Registry, id uint32) (string, RemoteMod, error) {
	names := registry.NamesByIDs([]uint32{id})
	if len(names) == 0 {
		return "", RemoteMod{}, fmt.Errorf("%w: GameBanana id %d not found in registry", ErrArgumentInvalid, id)
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	// When one id maps to several mods, the lexicographically first name
	// is the deterministic choice.
	name := sorted[0]
	mod, _ := registry.GetByName(name)
	return name, mod, nil
}
