// Package cip60 builds and validates CIP-60 music token metadata.
//
// Artists describe a release in a small form (YAML or JSON). Build turns the
// form into the on-chain metadata published under transaction metadata label
// 721, resolving every referenced file to an ipfs:// URI on the way.
//
// # Metadata Structure
//
// The built document has the CIP-25 shape with CIP-60 fields inside the asset:
//
//	{"721": {"<policy_id>": {"<asset_name>": {
//	    "name": ..., "image": ..., "music_metadata_version": 3,
//	    "release": {"release_type": "Single", "release_title": ...},
//	    "files": [{"name": ..., "mediaType": ..., "src": ..., "song": {...}}]
//	}}, "version": "1.0"}}
//
// Cardano metadata strings are limited to 64 bytes, so longer values are
// emitted as arrays of chunks (see Chunked).
//
// # Usage
//
//	form, err := cip60.LoadForm("release.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	md, err := cip60.Build(form, &cip60.LocalResolver{BaseDir: "."})
//	b, err := json.Marshal(md)
//	err = cip60.Validate(b)
package cip60

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MetadataLabel is the transaction metadata label for NFT metadata
	MetadataLabel = "721"
	// MetadataVersion is the CIP-25 version emitted by Build
	MetadataVersion = "1.0"
	// MusicMetadataVersion is the CIP-60 version emitted by Build
	MusicMetadataVersion = 3
	// MaxChunkSize is the Cardano limit on a metadata string, in bytes
	MaxChunkSize = 64
	// MaxAssetNameSize is the Cardano limit on an asset name, in bytes
	MaxAssetNameSize = 32
)

// Release types
const (
	ReleaseSingle   = "Single"
	ReleaseMultiple = "Multiple"
)

// Chunked is a metadata string that encodes as a JSON array of chunks when
// longer than MaxChunkSize bytes
type Chunked string

// Chunks splits the value into pieces of at most MaxChunkSize bytes without
// breaking a valid UTF-8 sequence
func (c Chunked) Chunks() []string {
	s := string(c)
	var chunks []string
	for len(s) > MaxChunkSize {
		cut := MaxChunkSize
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		// no rune start in the window: the bytes are not UTF-8, cut anyway
		if cut == 0 {
			cut = MaxChunkSize
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return append(chunks, s)
}

// MarshalJSON emits a string, or an array of strings for long values
func (c Chunked) MarshalJSON() ([]byte, error) {
	if len(c) <= MaxChunkSize {
		return json.Marshal(string(c))
	}
	return json.Marshal(c.Chunks())
}

// UnmarshalJSON accepts either a string or an array of string chunks
func (c *Chunked) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Chunked(s)
		return nil
	}

	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*c = Chunked(strings.Join(parts, ""))
	return nil
}

// Metadata is a CIP-60 document for a single asset
type Metadata struct {
	PolicyID  string
	AssetName string
	Version   string
	Asset     Asset
}

// MarshalJSON nests the asset under its label, policy id and asset name
func (m Metadata) MarshalJSON() ([]byte, error) {
	version := m.Version
	if version == "" {
		version = MetadataVersion
	}
	return json.Marshal(map[string]any{
		MetadataLabel: map[string]any{
			m.PolicyID: map[string]any{
				m.AssetName: m.Asset,
			},
			"version": version,
		},
	})
}

// Asset is the per-token metadata
type Asset struct {
	Name                 Chunked `json:"name"`
	Image                Chunked `json:"image"`
	MediaType            string  `json:"mediaType,omitempty"`
	MusicMetadataVersion int     `json:"music_metadata_version"`
	Release              Release `json:"release"`
	Files                []File  `json:"files"`
}

// Release describes the release as a whole
type Release struct {
	ReleaseType  string     `json:"release_type"`
	ReleaseTitle Chunked    `json:"release_title"`
	Copyright    *Copyright `json:"copyright,omitempty"`
}

// Copyright holds the master and composition notices
type Copyright struct {
	Master      Chunked `json:"master,omitempty"`
	Composition Chunked `json:"composition,omitempty"`
}

// File is one entry in the asset's files list
type File struct {
	Name      Chunked `json:"name"`
	MediaType string  `json:"mediaType"`
	Src       Chunked `json:"src"`
	Song      Song    `json:"song"`
}

// Song carries the CIP-60 per-track fields
type Song struct {
	SongTitle    Chunked    `json:"song_title"`
	SongDuration string     `json:"song_duration"`
	TrackNumber  int        `json:"track_number"`
	Artists      []Artist   `json:"artists"`
	Genres       []string   `json:"genres,omitempty"`
	Copyright    *Copyright `json:"copyright,omitempty"`
	Explicit     bool       `json:"explicit,omitempty"`
	ISRC         string     `json:"isrc,omitempty"`
	Lyrics       Chunked    `json:"lyrics,omitempty"`
}

// Artist credits a performer
type Artist struct {
	Name Chunked `json:"name"`
}

// ReleaseForm is the artist-facing description of a release
type ReleaseForm struct {
	PolicyID  string         `yaml:"policy_id" json:"policy_id"`
	AssetName string         `yaml:"asset_name" json:"asset_name"`
	Title     string         `yaml:"title" json:"title"`
	Type      string         `yaml:"type,omitempty" json:"type,omitempty"`
	Copyright *CopyrightForm `yaml:"copyright,omitempty" json:"copyright,omitempty"`
	Artists   []string       `yaml:"artists" json:"artists"`
	Genres    []string       `yaml:"genres,omitempty" json:"genres,omitempty"`
	Cover     MediaRef       `yaml:"cover" json:"cover"`
	Tracks    []TrackForm    `yaml:"tracks" json:"tracks"`
}

// CopyrightForm holds copyright notices as entered
type CopyrightForm struct {
	Master      string `yaml:"master,omitempty" json:"master,omitempty"`
	Composition string `yaml:"composition,omitempty" json:"composition,omitempty"`
}

// MediaRef points at a file, either on disk or already pinned by CID
type MediaRef struct {
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	CID       string `yaml:"cid,omitempty" json:"cid,omitempty"`
	MediaType string `yaml:"media_type" json:"media_type"`
}

// TrackForm describes one track as entered
type TrackForm struct {
	Title    string    `yaml:"title" json:"title"`
	Duration int       `yaml:"duration" json:"duration"` // seconds
	Artists  []string  `yaml:"artists,omitempty" json:"artists,omitempty"`
	Audio    MediaRef  `yaml:"audio" json:"audio"`
	Explicit bool      `yaml:"explicit,omitempty" json:"explicit,omitempty"`
	ISRC     string    `yaml:"isrc,omitempty" json:"isrc,omitempty"`
	Lyrics   *MediaRef `yaml:"lyrics,omitempty" json:"lyrics,omitempty"`
}
