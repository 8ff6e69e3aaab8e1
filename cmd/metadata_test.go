package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/cip8-walletauth/cip60"
	"github.com/anchorageoss/cip8-walletauth/testdata"
)

// releaseDir lays out the single-track form next to the files it references
func releaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release.yaml"), testdata.ReleaseFormYAML, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte("cover art"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "night-drive.mp3"), []byte("audio"), 0600))
	return dir
}

func TestMetadataBuild(t *testing.T) {
	dir := releaseDir(t)

	stdout, stderr, err := runCLI(t, "metadata", "build", "--form", filepath.Join(dir, "release.yaml"))
	require.NoError(t, err)

	md, err := cip60.DecodeMetadata([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, "NightDriveSingle", md.AssetName)
	assert.Equal(t, cip60.ReleaseSingle, md.Asset.Release.ReleaseType)
	require.Len(t, md.Asset.Files, 1)

	audioCID, err := cip60.ContentID([]byte("audio"))
	require.NoError(t, err)
	assert.Equal(t, cip60.Chunked(cip60.IPFSScheme+audioCID.String()), md.Asset.Files[0].Src)

	assert.Contains(t, stderr, "=== METADATA SUMMARY ===")
	assert.Contains(t, stderr, "Night Drive")
	assert.Contains(t, stderr, "✓ Metadata hash: ")
}

func TestMetadataBuildToFileThenValidate(t *testing.T) {
	dir := releaseDir(t)
	out := filepath.Join(t.TempDir(), "metadata.json")

	stdout, stderr, err := runCLI(t, "metadata", "build",
		"--form", filepath.Join(dir, "release.yaml"),
		"--out", out,
		"--quiet",
	)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "✓ Metadata written to "+out)
	assert.NotContains(t, stderr, "METADATA SUMMARY")

	stdout, stderr, err = runCLI(t, "metadata", "validate", "--file", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "✓ Metadata is valid")
	assert.Contains(t, stdout, "Night Drive")
}

func TestMetadataBuildMissingAsset(t *testing.T) {
	dir := releaseDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "cover.png")))

	_, _, err := runCLI(t, "metadata", "build", "--form", filepath.Join(dir, "release.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build metadata")
}

func TestMetadataValidateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := map[string]any{
		"721": map[string]any{
			"version": "1.0",
			"8c7c3f1e0d2a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90": map[string]any{
				"Bad": map[string]any{"name": "Bad", "music_metadata_version": 2},
			},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, _, err = runCLI(t, "metadata", "validate", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid metadata")
}

func TestMetadataCID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	stdout, _, err := runCLI(t, "metadata", "cid", path)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e  "+path+"\n", stdout)

	_, _, err = runCLI(t, "metadata", "cid")
	require.Error(t, err)
}
