package cip60

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ipfs/boxo/blockservice"
	blockstore "github.com/ipfs/boxo/blockstore"
	chunk "github.com/ipfs/boxo/chunker"
	offline "github.com/ipfs/boxo/exchange/offline"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/boxo/ipld/unixfs/importer/balanced"
	"github.com/ipfs/boxo/ipld/unixfs/importer/helpers"
	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

// IPFSScheme prefixes resolved asset URIs
const IPFSScheme = "ipfs://"

// ComputeHash computes the SHA256 hash of metadata bytes
func ComputeHash(metadataBytes []byte) string {
	sum := sha256.Sum256(metadataBytes)
	return hex.EncodeToString(sum[:])
}

// ContentID computes the CID that `ipfs add --only-hash --cid-version=1`
// reports for data. See ContentIDReader.
func ContentID(data []byte) (cid.Cid, error) {
	return ContentIDReader(bytes.NewReader(data))
}

// ContentIDReader imports r the way `ipfs add --cid-version=1` does, without
// storing or announcing anything: 256 KiB chunks, raw leaves, a balanced
// UnixFS DAG with 174 links per node and CIDv1 sha2-256 throughout. Content
// that fits in one chunk is addressed by its raw leaf (bafkrei...), larger
// content by a dag-pb root (bafybei...).
func ContentIDReader(r io.Reader) (cid.Cid, error) {
	bs := blockstore.NewBlockstore(dssync.MutexWrap(ds.NewMapDatastore()))
	dagService := merkledag.NewDAGService(blockservice.New(bs, offline.Exchange(bs)))

	params := helpers.DagBuilderParams{
		Dagserv:    dagService,
		Maxlinks:   helpers.DefaultLinksPerBlock,
		RawLeaves:  true,
		CidBuilder: merkledag.V1CidPrefix(),
	}
	db, err := params.New(chunk.NewSizeSplitter(r, chunk.DefaultBlockSize))
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to create DAG builder: %w", err)
	}

	root, err := balanced.Layout(db)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to hash content: %w", err)
	}
	return root.Cid(), nil
}

// AssetResolver turns a file path from a release form into a URI
type AssetResolver interface {
	Resolve(path string) (string, error)
}

// LocalResolver resolves files on disk to ipfs:// URIs by hashing them
// locally. Nothing is uploaded; the files must be pinned separately.
type LocalResolver struct {
	BaseDir string
}

// Resolve reads path relative to BaseDir and returns its ipfs:// URI
func (r *LocalResolver) Resolve(path string) (string, error) {
	if !filepath.IsAbs(path) && r.BaseDir != "" {
		path = filepath.Join(r.BaseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read asset: %w", err)
	}
	defer f.Close()

	c, err := ContentIDReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return IPFSScheme + c.String(), nil
}

func uriForCID(s string) (string, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", fmt.Errorf("invalid CID %q: %w", s, err)
	}
	return IPFSScheme + c.String(), nil
}
