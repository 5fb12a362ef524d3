package everest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gopkg.in/yaml.v3"
)

// registryURL is the canonical source for everest_update.yaml.
const registryURL = "https://maddie480.ovh/celeste/everest_update.yaml"

// registryGitHubMirrorURL is consulted instead of registryURL when the
// primary host is unreachable; same document, different host.
const registryGitHubMirrorURL = "https://raw.githubusercontent.com/EverestAPI/everest-update/master/everest_update.yaml"

// dependencyGraphURL is the companion document component G parses.
const dependencyGraphURL = "https://maddie480.ovh/celeste/mod_dependency_graph.yaml"

// RemoteMod is one entry of the remote registry, keyed by mod name.
type RemoteMod struct {
	Name      string
	Version   string
	URL       string
	FileSize  uint64
	Checksums []uint64
	GameBananaType string
	GameBananaID   uint32
}

// rawRemoteMod mirrors everest_update.yaml's on-wire field names.
type rawRemoteMod struct {
	Version        string   `yaml:"Version"`
	URL            string   `yaml:"URL"`
	Size           uint64   `yaml:"Size"`
	XXHash         []string `yaml:"xxHash"`
	GameBananaType string   `yaml:"GameBananaType"`
	GameBananaID   uint32   `yaml:"GameBananaId"`
}

// Registry is the parsed, queryable form of everest_update.yaml.
type Registry struct {
	mods     map[string]RemoteMod
	idToName map[uint32][]string
}

// ParseRegistry parses raw as a flat mapping from mod name to record,
// converts each record's hex xxHash strings to u64, injects the map key as
// the record's Name, and folds an id→names inverted index.
func ParseRegistry(raw []byte) (*Registry, error) {
	var entries map[string]rawRemoteMod
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryParse, err)
	}

	mods := make(map[string]RemoteMod, len(entries))
	idToName := map[uint32][]string{}

	for name, raw := range entries {
		checksums := make([]uint64, 0, len(raw.XXHash))
		for _, hexStr := range raw.XXHash {
			h, err := strconv.ParseUint(hexStr, 16, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: mod %q has invalid xxHash %q: %v", ErrRegistryParse, name, hexStr, err)
			}
			checksums = append(checksums, h)
		}

		mods[name] = RemoteMod{
			Name:           name,
			Version:        raw.Version,
			URL:            raw.URL,
			FileSize:       raw.Size,
			Checksums:      checksums,
			GameBananaType: raw.GameBananaType,
			GameBananaID:   raw.GameBananaID,
		}
		idToName[raw.GameBananaID] = append(idToName[raw.GameBananaID], name)
	}

	return &Registry{mods: mods, idToName: idToName}, nil
}

// GetByName returns the registry's record for name, if present.
func (r *Registry) GetByName(name string) (RemoteMod, bool) {
	mod, ok := r.mods[name]
	return mod, ok
}

// NamesByIDs returns the set of mod names whose GameBananaId is any of ids.
func (r *Registry) NamesByIDs(ids []uint32) map[string]struct{} {
	out := map[string]struct{}{}
	for _, id := range ids {
		for _, name := range r.idToName[id] {
			out[name] = struct{}{}
		}
	}
	return out
}

// Remove deletes and returns name's record, mirroring the "claim exactly
// once" extraction component H performs while walking local mods.
func (r *Registry) Remove(name string) (RemoteMod, bool) {
	mod, ok := r.mods[name]
	if ok {
		delete(r.mods, name)
	}
	return mod, ok
}

// Len reports how many mods remain in the registry.
func (r *Registry) Len() int { return len(r.mods) }

// FetchRegistry retrieves and parses everest_update.yaml over HTTP. With
// preferMirror false it tries the primary host first, falling back to the
// GitHub mirror if that request fails outright (network error or non-2xx
// status); with preferMirror true the order is reversed, matching
// --use-api-mirror.
func FetchRegistry(ctx context.Context, client *http.Client, preferMirror bool) (*Registry, error) {
	urls := []string{registryURL, registryGitHubMirrorURL}
	if preferMirror {
		urls = []string{registryGitHubMirrorURL, registryURL}
	}
	raw, err := fetchWithFallback(ctx, client, urls...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryFetch, err)
	}
	return ParseRegistry(raw)
}

func fetchWithFallback(ctx context.Context, client *http.Client, urls ...string) ([]byte, error) {
	var lastErr error
	for _, url := range urls {
		raw, err := fetchURL(ctx, client, url)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func fetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("requesting %s: unexpected status %s", url, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	return raw, nil
}

// FetchDependencyGraph retrieves and parses mod_dependency_graph.yaml,
// the companion document component G builds its BFS over. Fetching the
// registry and the dependency graph is treated as one logical "load
// registry" step by the dispatcher, so both share the same error taxonomy.
func FetchDependencyGraph(ctx context.Context, client *http.Client) (DependencyGraph, error) {
	raw, err := fetchURL(ctx, client, dependencyGraphURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryFetch, err)
	}
	return ParseDependencyGraph(raw)
}
