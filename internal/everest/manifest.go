package everest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// manifestPrimaryName and manifestFallbackName are the two entry names
// component D asks component A to locate inside each archive, tried in
// this order.
const (
	manifestPrimaryName  = "everest.yaml"
	manifestFallbackName = "everest.yml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dependency is one entry of a manifest's Dependencies or
// OptionalDependencies list. Version is informational only; nothing in this
// package resolves version constraints against it.
type Dependency struct {
	Name    string `yaml:"Name"`
	Version string `yaml:"Version"`
}

// ModManifest is the primary mod described by an archive's everest.yaml.
// Field-name mapping is case-sensitive and fixed to match the format the
// Everest mod loader itself reads.
type ModManifest struct {
	Name                 string       `yaml:"Name"`
	Version              string       `yaml:"Version"`
	DLL                  string       `yaml:"DLL"`
	Dependencies         []Dependency `yaml:"Dependencies"`
	OptionalDependencies []Dependency `yaml:"OptionalDependencies"`
}

// ParseManifest strips an optional UTF-8 BOM from raw, parses it as a YAML
// sequence of manifest entries, and returns the first element, the
// "primary mod". Additional sequence elements (secondary mods shipping in
// the same archive) are discarded.
func ParseManifest(raw []byte) (ModManifest, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var entries []ModManifest
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return ModManifest{}, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	if len(entries) == 0 {
		return ModManifest{}, fmt.Errorf("%w: manifest has no entries", ErrManifestParse)
	}
	return entries[0], nil
}
