package cip60

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var durationPattern = regexp.MustCompile(`^PT(\d+H)?(\d+M)?(\d+S)?$`)

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Validate checks a label 721 metadata document against the CIP-60 schema
// and the rules the schema cannot express. All problems found are returned
// together as a *multierror.Error.
func Validate(metadataJSON []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(metadataJSON))
	if err != nil {
		return fmt.Errorf("failed to validate metadata: %w", err)
	}

	var result *multierror.Error
	for _, e := range res.Errors() {
		result = multierror.Append(result, errors.New(e.String()))
	}
	if result != nil {
		return result
	}

	md, err := DecodeMetadata(metadataJSON)
	if err != nil {
		return err
	}
	return md.Check()
}

// Check applies the semantic rules to decoded metadata
func (m *Metadata) Check() error {
	var result *multierror.Error

	if err := checkPolicyID(m.PolicyID); err != nil {
		result = multierror.Append(result, err)
	}
	if err := checkAssetName(m.AssetName); err != nil {
		result = multierror.Append(result, err)
	}

	files := m.Asset.Files
	switch m.Asset.Release.ReleaseType {
	case ReleaseSingle:
		if len(files) != 1 {
			result = multierror.Append(result, fmt.Errorf("a Single must have exactly one track, found %d", len(files)))
		}
	case ReleaseMultiple:
		if len(files) == 0 {
			result = multierror.Append(result, errors.New("a release must have at least one track"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown release type %q", m.Asset.Release.ReleaseType))
	}

	seen := make(map[int]bool, len(files))
	for i, f := range files {
		n := f.Song.TrackNumber
		if seen[n] {
			result = multierror.Append(result, fmt.Errorf("file %d: duplicate track number %d", i+1, n))
		}
		seen[n] = true

		if d := f.Song.SongDuration; d == "PT" || !durationPattern.MatchString(d) {
			result = multierror.Append(result, fmt.Errorf("file %d: invalid song duration %q", i+1, d))
		}
	}

	return result.ErrorOrNil()
}
