package pkghash

import (
	"encoding/hex"
	"fmt"

	digest "github.com/opencontainers/go-digest"
	"github.com/multiformats/go-multihash"
)

// Digest is the raw 256-bit content hash produced by HashFile/HashDirectory.
type Digest [32]byte

// String renders the digest as a go-digest style "sha256:<hex>" string,
// useful for log lines and error messages.
func (d Digest) String() string {
	return digest.NewDigestFromBytes(digest.SHA256, d[:]).String()
}

// Multihash wraps d in the multihash wire format (algorithm/length prefix +
// raw digest) and renders it as hex, giving the public identifier used for
// both cache addressing and integrity verification (spec.md §3, §6).
func (d Digest) Multihash() (string, error) {
	mh, err := multihash.Encode(d[:], multihash.SHA2_256)
	if err != nil {
		return "", fmt.Errorf("encode multihash: %w", err)
	}
	return hex.EncodeToString(mh), nil
}

// ParseMultihash decodes a multihash hex digest back into its raw 256-bit
// form, as produced by Digest.Multihash. It is the inverse operation used
// when resolving a dependency's declared hash into a cache path.
func ParseMultihash(hexDigest string) (Digest, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid multihash hex: %w", err)
	}

	decoded, err := multihash.Decode(raw)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid multihash: %w", err)
	}

	if decoded.Code != multihash.SHA2_256 || len(decoded.Digest) != 32 {
		return Digest{}, fmt.Errorf("unsupported multihash algorithm or length")
	}

	var d Digest
	copy(d[:], decoded.Digest)
	return d, nil
}
