package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
	"github.com/zeebo/blake3"
)

const (
	// PublicKeySize is the size of a compressed BLS public key in bytes.
	PublicKeySize = 48

	// SignatureSize is the size of a compressed BLS signature in bytes.
	SignatureSize = 96

	// SeedSize is the minimum seed length for key generation.
	SeedSize = 32
)

var (
	// ErrWrongRole is returned when a context is used for the wrong purpose.
	ErrWrongRole = errors.New("context has wrong role")

	// ErrInvalidPublicKey is returned when public key bytes do not decode.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSignature is returned when signature bytes have the wrong size.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSeedTooShort is returned when a key seed is below SeedSize.
	ErrSeedTooShort = errors.New("seed must be at least 32 bytes")
)

// PrivateKey is a replica's BLS signing key.
type PrivateKey struct {
	secret *blst.SecretKey // secret is the scalar
	public *PublicKey      // public is the matching public key
}

// PublicKey is a replica's BLS public key.
type PublicKey struct {
	point *blst.P1Affine // point is the decoded key
	raw   []byte         // raw is the compressed encoding
}

// Signature is a compressed BLS signature.
// It is decoded lazily so malformed bytes simply fail verification.
type Signature struct {
	raw []byte
}

// GenerateKey creates a new key from a random seed.
func GenerateKey() (*PrivateKey, error) {
	var ikm [SeedSize]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, fmt.Errorf("generate random seed:\n%w", err)
	}

	return GenerateKeyFromSeed(ikm[:])
}

// GenerateKeyFromSeed creates a key from a deterministic seed.
func GenerateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) < SeedSize {
		return nil, ErrSeedTooShort
	}

	secret := blst.KeyGen(seed)
	if secret == nil {
		return nil, fmt.Errorf("failed to generate BLS key")
	}

	point := new(blst.P1Affine).From(secret)

	return &PrivateKey{
		secret: secret,
		public: &PublicKey{point: point, raw: point.Compress()},
	}, nil
}

// DeriveKey derives the key of replica index from a shared label.
// The seed is BLAKE3("quorumcore-keygen" || label || index).
func DeriveKey(label string, index int) (*PrivateKey, error) {
	h := blake3.New()
	h.Write([]byte("quorumcore-keygen"))
	h.Write([]byte(label))

	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))
	h.Write(idx[:])

	var seed [SeedSize]byte
	h.Sum(seed[:0])

	return GenerateKeyFromSeed(seed[:])
}

// PublicKey returns the public half of the key.
func (k *PrivateKey) PublicKey() *PublicKey {
	return k.public
}

// Sign signs digest under the given signing context.
func (k *PrivateKey) Sign(ctx *Context, digest Digest) (*Signature, error) {
	if !ctx.can(RoleSign) {
		return nil, ErrWrongRole
	}

	sig := new(blst.P2Affine).Sign(k.secret, digest[:], ctx.dst)
	if sig == nil {
		return nil, fmt.Errorf("sign digest %s", digest.Short())
	}

	return &Signature{raw: sig.Compress()}, nil
}

// PublicKeyFromBytes decodes a compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(b), PublicKeySize)
	}

	point := new(blst.P1Affine).Uncompress(b)
	if point == nil {
		return nil, ErrInvalidPublicKey
	}

	raw := make([]byte, len(b))
	copy(raw, b)

	return &PublicKey{point: point, raw: raw}, nil
}

// Bytes returns the compressed public key.
func (pk *PublicKey) Bytes() []byte {
	out := make([]byte, len(pk.raw))
	copy(out, pk.raw)
	return out
}

// Equal reports whether both keys have the same encoding.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}

	return string(pk.raw) == string(other.raw)
}

// SignatureFromBytes wraps a compressed signature.
// Only the length is checked here, the point is decoded on Verify.
func SignatureFromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(b), SignatureSize)
	}

	raw := make([]byte, len(b))
	copy(raw, b)

	return &Signature{raw: raw}, nil
}

// Bytes returns the compressed signature.
func (s *Signature) Bytes() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// Verify checks the signature over digest against pk.
// Any malformed input, nil key or non-verifying context yields false.
func (s *Signature) Verify(ctx *Context, digest Digest, pk *PublicKey) bool {
	if s == nil || pk == nil || pk.point == nil || !ctx.can(RoleVerify) {
		return false
	}

	if len(s.raw) != SignatureSize {
		return false
	}

	sig := new(blst.P2Affine).Uncompress(s.raw)
	if sig == nil {
		return false
	}

	return sig.Verify(true, pk.point, true, digest[:], ctx.dst)
}
