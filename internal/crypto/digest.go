package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// DigestSize is the size of a Digest in bytes.
const DigestSize = 32

// Digest is a 256-bit content identifier of a certified value.
type Digest [DigestSize]byte

// HashDigest computes the blake3 digest of data.
func HashDigest(data []byte) Digest {
	return blake3.Sum256(data)
}

// String returns the full hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 10 hex characters, for logs.
func (d Digest) Short() string {
	return d.String()[:10]
}

// IsZero reports whether the digest is all zeroes.
func (d Digest) IsZero() bool {
	return d == Digest{}
}
