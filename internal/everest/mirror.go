package everest

import (
	"fmt"
	"strconv"
	"strings"
)

// MirrorID names one of the four mirror hosts a download can be routed
// through. The CLI spells these gb/jade/wegfan/otobot.
type MirrorID string

const (
	MirrorPrimary MirrorID = "primary"
	MirrorA       MirrorID = "mirror-a"
	MirrorB       MirrorID = "mirror-b"
	MirrorC       MirrorID = "mirror-c"
)

// gamebananaURLPrefixes are the four URL forms a registry download_url can
// take that are recognised as GameBanana-hosted and therefore mirrorable.
var gamebananaURLPrefixes = []string{
	"http://gamebanana.com/dl/",
	"https://gamebanana.com/dl/",
	"http://gamebanana.com/mmdl/",
	"https://gamebanana.com/mmdl/",
}

func mirrorTemplate(id MirrorID, gbid uint32) string {
	switch id {
	case MirrorPrimary:
		return fmt.Sprintf("https://gamebanana.com/mmdl/%d", gbid)
	case MirrorA:
		return fmt.Sprintf("https://celestemodupdater.0x0a.de/banana-mirror/%d.zip", gbid)
	case MirrorB:
		return fmt.Sprintf("https://celeste.weg.fan/api/v2/download/gamebanana-files/%d", gbid)
	case MirrorC:
		return fmt.Sprintf("https://banana-mirror-mods.celestemods.com/%d.zip", gbid)
	default:
		return ""
	}
}

// extractGameBananaID returns the numeric id encoded in url if url begins
// with one of the four recognised GameBanana download prefixes and the
// remainder parses as a non-negative 32-bit integer.
func extractGameBananaID(url string) (uint32, bool) {
	for _, prefix := range gamebananaURLPrefixes {
		if rest, ok := strings.CutPrefix(url, prefix); ok {
			id, err := strconv.ParseUint(rest, 10, 32)
			if err != nil {
				return 0, false
			}
			return uint32(id), true
		}
	}
	return 0, false
}

// ExpandMirrorURLs maps a registry download URL through mirrorIDs in
// order, producing the templated URL for each if url is GameBanana-hosted,
// or a single-element list containing url unchanged otherwise.
func ExpandMirrorURLs(url string, mirrorIDs []MirrorID) []string {
	gbid, ok := extractGameBananaID(url)
	if !ok {
		return []string{url}
	}

	urls := make([]string, 0, len(mirrorIDs))
	for _, id := range mirrorIDs {
		if tmpl := mirrorTemplate(id, gbid); tmpl != "" {
			urls = append(urls, tmpl)
		}
	}
	if len(urls) == 0 {
		return []string{url}
	}
	return urls
}

// ParseMirrorID maps the CLI's short mirror names to their MirrorID.
func ParseMirrorID(name string) (MirrorID, error) {
	switch name {
	case "gb":
		return MirrorPrimary, nil
	case "jade":
		return MirrorA, nil
	case "wegfan":
		return MirrorB, nil
	case "otobot":
		return MirrorC, nil
	default:
		return "", fmt.Errorf("%w: unknown mirror %q", ErrArgumentInvalid, name)
	}
}
