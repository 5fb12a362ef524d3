package everest

import (
	"reflect"
	"testing"
)

func TestExpandMirrorURLs(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		mirrorIDs []MirrorID
		want      []string
	}{
		{
			name:      "mmdl https url expands to all requested mirrors in order",
			url:       "https://gamebanana.com/mmdl/123456",
			mirrorIDs: []MirrorID{MirrorC, MirrorPrimary, MirrorA, MirrorB},
			want: []string{
				"https://banana-mirror-mods.celestemods.com/123456.zip",
				"https://gamebanana.com/mmdl/123456",
				"https://celestemodupdater.0x0a.de/banana-mirror/123456.zip",
				"https://celeste.weg.fan/api/v2/download/gamebanana-files/123456",
			},
		},
		{
			name:      "dl http url is also recognised",
			url:       "http://gamebanana.com/dl/654321",
			mirrorIDs: []MirrorID{MirrorPrimary},
			want:      []string{"https://gamebanana.com/mmdl/654321"},
		},
		{
			name:      "non-gamebanana url passes through unchanged",
			url:       "https://example.com/some-other-file.zip",
			mirrorIDs: []MirrorID{MirrorPrimary, MirrorA},
			want:      []string{"https://example.com/some-other-file.zip"},
		},
		{
			name:      "trailing non-numeric id is not mirrorable",
			url:       "https://gamebanana.com/mmdl/not-a-number",
			mirrorIDs: []MirrorID{MirrorPrimary},
			want:      []string{"https://gamebanana.com/mmdl/not-a-number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandMirrorURLs(tt.url, tt.mirrorIDs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandMirrorURLs(%q) = %v; want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseMirrorID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MirrorID
		wantErr bool
	}{
		{"gb maps to primary", "gb", MirrorPrimary, false},
		{"jade maps to mirror-a", "jade", MirrorA, false},
		{"wegfan maps to mirror-b", "wegfan", MirrorB, false},
		{"otobot maps to mirror-c", "otobot", MirrorC, false},
		{"unknown name is rejected", "nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMirrorID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMirrorID(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseMirrorID(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}
