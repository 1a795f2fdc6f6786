// Package naming assigns emission names and public URLs to variants.
//
// Names follow the `<content-id>-<ratio><ext>` convention, for example
// `3f2a9c1d0b7e4a55-2.5.png`. The content id is a truncated hex digest of
// the source bytes, so unchanged sources keep stable names across builds.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/matzehuels/densify/pkg/density"
)

// Hash algorithm names.
const (
	HashSHA256 = "sha256"
	HashBLAKE3 = "blake3"
)

// DefaultIDLength is the number of hex characters kept from the digest.
const DefaultIDLength = 16

// Namer maps a content id, ratio and extension to an emission name and the
// public URL that name will be served under.
type Namer interface {
	Name(contentID string, ratio float64, ext string) (name, url string)
}

// Hasher computes content ids.
type Hasher struct {
	algorithm string
	length    int
}

// NewHasher creates a hasher for the named algorithm keeping length hex
// characters. Empty algorithm selects sha256; length <= 0 selects
// DefaultIDLength.
func NewHasher(algorithm string, length int) (Hasher, error) {
	if algorithm == "" {
		algorithm = HashSHA256
	}
	algorithm = strings.ToLower(algorithm)
	if algorithm != HashSHA256 && algorithm != HashBLAKE3 {
		return Hasher{}, fmt.Errorf("unknown hash %q (must be one of: sha256, blake3)", algorithm)
	}
	if length <= 0 {
		length = DefaultIDLength
	}
	if length > 64 {
		return Hasher{}, fmt.Errorf("id length %d exceeds digest size (max 64)", length)
	}
	return Hasher{algorithm: algorithm, length: length}, nil
}

// Algorithm returns the hash algorithm name.
func (h Hasher) Algorithm() string { return h.algorithm }

// ContentID returns the truncated hex digest of data.
func (h Hasher) ContentID(data []byte) string {
	var sum [32]byte
	switch h.algorithm {
	case HashBLAKE3:
		sum = blake3.Sum256(data)
	default:
		sum = sha256.Sum256(data)
	}
	id := hex.EncodeToString(sum[:])
	if h.length > 0 && h.length < len(id) {
		id = id[:h.length]
	}
	return id
}

// PublicPathNamer names variants `<id>-<ratio><ext>` and serves them under
// a public path prefix.
type PublicPathNamer struct {
	publicPath string
}

// NewPublicPathNamer creates a namer. A non-empty publicPath gets a trailing
// slash so it can be joined with names directly.
func NewPublicPathNamer(publicPath string) *PublicPathNamer {
	if publicPath != "" && !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return &PublicPathNamer{publicPath: publicPath}
}

// PublicPath returns the normalized prefix.
func (n *PublicPathNamer) PublicPath() string { return n.publicPath }

// Name implements Namer.
func (n *PublicPathNamer) Name(contentID string, ratio float64, ext string) (string, string) {
	name := fmt.Sprintf("%s-%s%s", contentID, density.FormatRatio(ratio), ext)
	return name, n.publicPath + name
}

// Ensure PublicPathNamer implements Namer.
var _ Namer = (*PublicPathNamer)(nil)
