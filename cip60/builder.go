package cip60

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Build assembles CIP-60 metadata from a release form. File paths are
// resolved through assets; references that already carry a CID are used as is.
func Build(form *ReleaseForm, assets AssetResolver) (*Metadata, error) {
	if form == nil {
		return nil, errors.New("release form is required")
	}
	if err := checkForm(form); err != nil {
		return nil, err
	}

	releaseType := form.Type
	if releaseType == "" {
		releaseType = ReleaseMultiple
		if len(form.Tracks) == 1 {
			releaseType = ReleaseSingle
		}
	}

	image, err := resolve(form.Cover, assets)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cover: %w", err)
	}

	copyright := buildCopyright(form.Copyright)
	asset := Asset{
		Name:                 Chunked(form.Title),
		Image:                Chunked(image),
		MediaType:            form.Cover.MediaType,
		MusicMetadataVersion: MusicMetadataVersion,
		Release: Release{
			ReleaseType:  releaseType,
			ReleaseTitle: Chunked(form.Title),
			Copyright:    copyright,
		},
	}

	for i, track := range form.Tracks {
		src, err := resolve(track.Audio, assets)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve audio for track %d: %w", i+1, err)
		}

		artists := track.Artists
		if len(artists) == 0 {
			artists = form.Artists
		}

		song := Song{
			SongTitle:    Chunked(track.Title),
			SongDuration: FormatDuration(track.Duration),
			TrackNumber:  i + 1,
			Artists:      buildArtists(artists),
			Genres:       form.Genres,
			Copyright:    copyright,
			Explicit:     track.Explicit,
			ISRC:         track.ISRC,
		}
		if track.Lyrics != nil {
			lyrics, err := resolve(*track.Lyrics, assets)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve lyrics for track %d: %w", i+1, err)
			}
			song.Lyrics = Chunked(lyrics)
		}

		asset.Files = append(asset.Files, File{
			Name:      Chunked(track.Title),
			MediaType: track.Audio.MediaType,
			Src:       Chunked(src),
			Song:      song,
		})
	}

	return &Metadata{
		PolicyID:  strings.ToLower(form.PolicyID),
		AssetName: form.AssetName,
		Version:   MetadataVersion,
		Asset:     asset,
	}, nil
}

// FormatDuration renders seconds as an ISO-8601 duration, e.g. PT3M21S
func FormatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	var sb strings.Builder
	sb.WriteString("PT")
	if h > 0 {
		fmt.Fprintf(&sb, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&sb, "%dM", m)
	}
	if s > 0 || (h == 0 && m == 0) {
		fmt.Fprintf(&sb, "%dS", s)
	}
	return sb.String()
}

func checkForm(form *ReleaseForm) error {
	var result *multierror.Error

	if err := checkPolicyID(form.PolicyID); err != nil {
		result = multierror.Append(result, err)
	}
	if err := checkAssetName(form.AssetName); err != nil {
		result = multierror.Append(result, err)
	}
	if form.Title == "" {
		result = multierror.Append(result, errors.New("title is required"))
	}
	switch form.Type {
	case "", ReleaseSingle, ReleaseMultiple:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown release type %q", form.Type))
	}
	if form.Type == ReleaseSingle && len(form.Tracks) != 1 {
		result = multierror.Append(result, fmt.Errorf("a Single must have exactly one track, found %d", len(form.Tracks)))
	}
	if len(form.Tracks) == 0 {
		result = multierror.Append(result, errors.New("at least one track is required"))
	}
	if len(form.Artists) == 0 {
		result = multierror.Append(result, errors.New("at least one artist is required"))
	}
	if err := checkMediaRef("cover", form.Cover); err != nil {
		result = multierror.Append(result, err)
	}

	for i, track := range form.Tracks {
		n := i + 1
		if track.Title == "" {
			result = multierror.Append(result, fmt.Errorf("track %d: title is required", n))
		}
		if track.Duration <= 0 {
			result = multierror.Append(result, fmt.Errorf("track %d: duration must be positive", n))
		}
		if err := checkMediaRef(fmt.Sprintf("track %d audio", n), track.Audio); err != nil {
			result = multierror.Append(result, err)
		}
		if track.Lyrics != nil {
			if err := checkMediaRef(fmt.Sprintf("track %d lyrics", n), *track.Lyrics); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

func checkPolicyID(policyID string) error {
	b, err := hex.DecodeString(policyID)
	if err != nil || len(b) != 28 {
		return fmt.Errorf("policy id must be 56 hex characters, got %q", policyID)
	}
	return nil
}

func checkAssetName(name string) error {
	if name == "" {
		return errors.New("asset name is required")
	}
	if len(name) > MaxAssetNameSize {
		return fmt.Errorf("asset name is %d bytes, limit is %d", len(name), MaxAssetNameSize)
	}
	return nil
}

func checkMediaRef(what string, ref MediaRef) error {
	if ref.Path == "" && ref.CID == "" {
		return fmt.Errorf("%s: path or cid is required", what)
	}
	if ref.MediaType == "" {
		return fmt.Errorf("%s: media type is required", what)
	}
	return nil
}

func resolve(ref MediaRef, assets AssetResolver) (string, error) {
	if ref.CID != "" {
		return uriForCID(ref.CID)
	}
	if assets == nil {
		return "", fmt.Errorf("no resolver for %s", ref.Path)
	}
	return assets.Resolve(ref.Path)
}

func buildCopyright(form *CopyrightForm) *Copyright {
	if form == nil || (form.Master == "" && form.Composition == "") {
		return nil
	}
	return &Copyright{
		Master:      Chunked(form.Master),
		Composition: Chunked(form.Composition),
	}
}

func buildArtists(names []string) []Artist {
	artists := make([]Artist, 0, len(names))
	for _, name := range names {
		artists = append(artists, Artist{Name: Chunked(name)})
	}
	return artists
}
