// Package testdata provides embedded test fixtures for use across all test packages.
package testdata

import (
	_ "embed"
	"encoding/json"
)

// CIP8VectorJSON is a CIP-8 signData response signed with a fixed seed
//
//go:embed cip8_vector.json
var CIP8VectorJSON []byte

// ReleaseFormYAML is a single-track CIP-60 release form
//
//go:embed release_single.yaml
var ReleaseFormYAML []byte

// ReleaseAlbumJSON is a multi-track CIP-60 release form in JSON
//
//go:embed release_album.json
var ReleaseAlbumJSON []byte

// CIP8Vector mirrors cip8_vector.json
type CIP8Vector struct {
	Seed         string `json:"seed"`
	PublicKey    string `json:"publicKey"`
	Protected    string `json:"protected"`
	SigStructure string `json:"sigStructure"`
	Payload      struct {
		Address   string `json:"address"`
		Hash      string `json:"hash"`
		Signature string `json:"signature"`
		Key       string `json:"key"`
	} `json:"payload"`
}

// LoadCIP8Vector decodes the embedded CIP-8 vector
func LoadCIP8Vector() CIP8Vector {
	var v CIP8Vector
	if err := json.Unmarshal(CIP8VectorJSON, &v); err != nil {
		panic(err)
	}
	return v
}
