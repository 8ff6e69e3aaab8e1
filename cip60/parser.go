package cip60

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Form encodings accepted by ParseForm
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// LoadForm reads a release form, choosing the decoder from the file extension
func LoadForm(path string) (*ReleaseForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return ParseForm(data, format)
}

// ParseForm decodes a release form in the given format
func ParseForm(data []byte, format string) (*ReleaseForm, error) {
	var form ReleaseForm
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&form); err != nil {
			return nil, fmt.Errorf("failed to decode YAML form: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&form); err != nil {
			return nil, fmt.Errorf("failed to decode JSON form: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported form format: %s", format)
	}
	return &form, nil
}

// DecodeMetadata parses a label 721 document holding exactly one asset
func DecodeMetadata(data []byte) (*Metadata, error) {
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	label, ok := doc[MetadataLabel]
	if !ok {
		return nil, fmt.Errorf("metadata has no %s label", MetadataLabel)
	}

	md := &Metadata{}
	for key, raw := range label {
		if key == "version" {
			if err := json.Unmarshal(raw, &md.Version); err != nil {
				return nil, fmt.Errorf("failed to decode version: %w", err)
			}
			continue
		}
		if md.PolicyID != "" {
			return nil, errors.New("metadata must contain a single policy")
		}

		var assets map[string]Asset
		if err := json.Unmarshal(raw, &assets); err != nil {
			return nil, fmt.Errorf("failed to decode assets for policy %s: %w", key, err)
		}
		if len(assets) != 1 {
			return nil, fmt.Errorf("policy %s must contain a single asset, found %d", key, len(assets))
		}
		md.PolicyID = key
		for name, asset := range assets {
			md.AssetName = name
			md.Asset = asset
		}
	}

	if md.PolicyID == "" {
		return nil, errors.New("metadata has no policy")
	}
	return md, nil
}
