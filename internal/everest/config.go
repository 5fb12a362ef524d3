package everest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// steamModsDirectoryPath is appended to the user's home directory to find
// the default mods directory when none is given explicitly.
const steamModsDirectoryPath = ".local/share/Steam/steamapps/common/Celeste/Mods"

// steamModsDirectoryPathWindows is the Windows equivalent of
// steamModsDirectoryPath, relative to the home directory.
const steamModsDirectoryPathWindows = `AppData\Roaming\..\Local\Steam\steamapps\common\Celeste\Mods`

// cacheFileName is the name of this tool's persistent hash cache under the
// XDG cache directory.
const cacheFileName = "everest-updater/hash-cache.bin"

// DefaultModsDirectory returns the conventional Celeste/Everest mods
// directory under the user's home, or an error wrapping
// ErrPathsUnavailable if the home directory cannot be determined.
func DefaultModsDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: could not determine home directory, specify --directory: %v", ErrPathsUnavailable, err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, steamModsDirectoryPathWindows), nil
	}
	return filepath.Join(home, steamModsDirectoryPath), nil
}

// DefaultCachePath returns this tool's persistent hash-cache file path
// under the user's XDG cache directory.
func DefaultCachePath() (string, error) {
	path, err := xdg.CacheFile(cacheFileName)
	if err != nil {
		return "", fmt.Errorf("%w: resolving cache path: %v", ErrPathsUnavailable, err)
	}
	return path, nil
}

// Config collects the resolved settings a dispatch operation (list,
// install, update, show) needs.
type Config struct {
	ModsDir      string
	CachePath    string
	MirrorIDs    []MirrorID
	Jobs         int
	UseAPIMirror bool
}
