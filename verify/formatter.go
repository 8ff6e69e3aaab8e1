package verify

import (
	"fmt"
	"strings"

	"github.com/anchorageoss/cip8-walletauth/cip60"
)

// Formatter formats verification and metadata for display
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatVerification formats a verification outcome for terminal output
func (f *Formatter) FormatVerification(v *Verification, indent string) string {
	var sb strings.Builder

	if v.Valid {
		sb.WriteString(fmt.Sprintf("%s✓ Signature valid\n", indent))
	} else {
		sb.WriteString(fmt.Sprintf("%s✗ Signature rejected (%s)\n", indent, v.Reason))
	}

	sb.WriteString(fmt.Sprintf("%s    Address: %s\n", indent, orNone(v.Address)))
	sb.WriteString(fmt.Sprintf("%s    Hash: %s\n", indent, orNone(v.Hash)))

	if !v.Valid {
		sb.WriteString(fmt.Sprintf("%s    Error: %s\n", indent, v.Error))
		return sb.String()
	}

	if v.HeaderAddress != "" {
		sb.WriteString(fmt.Sprintf("%s    Header address: %s (%s)\n", indent, v.HeaderAddress, v.Network))
	}
	sb.WriteString(fmt.Sprintf("%s    Public key: %s\n", indent, v.PublicKey))
	sb.WriteString(fmt.Sprintf("%s    Hashed: %t\n", indent, v.Hashed))
	return sb.String()
}

// FormatVerificationJSON formats a verification outcome for JSON output
func (f *Formatter) FormatVerificationJSON(v *Verification) map[string]interface{} {
	output := map[string]interface{}{
		"valid":   v.Valid,
		"reason":  v.Reason,
		"address": v.Address,
		"hash":    v.Hash,
	}

	if v.Error != "" {
		output["error"] = v.Error
	}
	if v.Valid {
		output["publicKey"] = v.PublicKey
		output["hashed"] = v.Hashed
		if v.HeaderAddress != "" {
			output["headerAddress"] = v.HeaderAddress
			output["network"] = v.Network
		}
	}

	return output
}

// FormatMetadata formats CIP-60 metadata for display
func (f *Formatter) FormatMetadata(m *cip60.Metadata) string {
	var sb strings.Builder
	asset := m.Asset

	sb.WriteString("Token:\n")
	sb.WriteString(fmt.Sprintf("  Policy: %s\n", m.PolicyID))
	sb.WriteString(fmt.Sprintf("  Asset: %s\n", m.AssetName))
	sb.WriteString(fmt.Sprintf("  Image: %s\n", asset.Image))

	sb.WriteString("\nRelease:\n")
	sb.WriteString(fmt.Sprintf("  Title: %s\n", asset.Release.ReleaseTitle))
	sb.WriteString(fmt.Sprintf("  Type: %s\n", asset.Release.ReleaseType))
	if c := asset.Release.Copyright; c != nil {
		sb.WriteString(fmt.Sprintf("  Copyright: %s\n", formatCopyright(c)))
	}

	sb.WriteString(fmt.Sprintf("\nTracks (%d):\n", len(asset.Files)))
	for _, file := range asset.Files {
		song := file.Song
		explicit := ""
		if song.Explicit {
			explicit = " [explicit]"
		}
		sb.WriteString(fmt.Sprintf("  %d. %s (%s)%s\n", song.TrackNumber, song.SongTitle, song.SongDuration, explicit))
		sb.WriteString(fmt.Sprintf("     Artists: %s\n", f.FormatArtists(song.Artists)))
		sb.WriteString(fmt.Sprintf("     Source: %s (%s)\n", file.Src, file.MediaType))
	}

	return sb.String()
}

// FormatArtists joins artist names for output
func (f *Formatter) FormatArtists(artists []cip60.Artist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = string(a.Name)
	}
	return strings.Join(names, ", ")
}

func formatCopyright(c *cip60.Copyright) string {
	var parts []string
	if c.Master != "" {
		parts = append(parts, string(c.Master))
	}
	if c.Composition != "" {
		parts = append(parts, string(c.Composition))
	}
	return strings.Join(parts, " / ")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
