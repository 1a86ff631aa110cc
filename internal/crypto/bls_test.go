package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// testContexts returns a signing and a verifying context with the default tag.
func testContexts() (*Context, *Context) {
	return NewSigningContext(nil), NewVerifyingContext(nil)
}

// TestSignVerify tests basic sign and verify.
func TestSignVerify(t *testing.T) {
	sctx, vctx := testContexts()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	digest := HashDigest([]byte("block 1"))

	sig, err := key.Sign(sctx, digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if len(sig.Bytes()) != SignatureSize {
		t.Errorf("signature size: got %d, want %d", len(sig.Bytes()), SignatureSize)
	}

	if !sig.Verify(vctx, digest, key.PublicKey()) {
		t.Error("valid signature should verify")
	}
}

// TestVerifyWrongDigest tests verification against another digest.
func TestVerifyWrongDigest(t *testing.T) {
	sctx, vctx := testContexts()
	key, _ := GenerateKey()

	sig, _ := key.Sign(sctx, HashDigest([]byte("a")))

	if sig.Verify(vctx, HashDigest([]byte("b")), key.PublicKey()) {
		t.Error("signature should not verify with wrong digest")
	}
}

// TestVerifyWrongKey tests verification with another replica's key.
func TestVerifyWrongKey(t *testing.T) {
	sctx, vctx := testContexts()
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	digest := HashDigest([]byte("a"))
	sig, _ := key1.Sign(sctx, digest)

	if sig.Verify(vctx, digest, key2.PublicKey()) {
		t.Error("signature should not verify with wrong key")
	}
}

// TestVerifyWrongDST tests that contexts with different tags do not mix.
func TestVerifyWrongDST(t *testing.T) {
	key, _ := GenerateKey()
	digest := HashDigest([]byte("a"))

	sig, _ := key.Sign(NewSigningContext([]byte("tag-a")), digest)

	if sig.Verify(NewVerifyingContext([]byte("tag-b")), digest, key.PublicKey()) {
		t.Error("signature should not verify under another tag")
	}
}

// TestContextRoles tests that roles are enforced on both sides.
func TestContextRoles(t *testing.T) {
	sctx, vctx := testContexts()
	key, _ := GenerateKey()
	digest := HashDigest([]byte("a"))

	if _, err := key.Sign(vctx, digest); !errors.Is(err, ErrWrongRole) {
		t.Errorf("sign with verifying context: got %v, want ErrWrongRole", err)
	}

	if _, err := key.Sign(nil, digest); !errors.Is(err, ErrWrongRole) {
		t.Errorf("sign with nil context: got %v, want ErrWrongRole", err)
	}

	sig, _ := key.Sign(sctx, digest)
	if sig.Verify(sctx, digest, key.PublicKey()) {
		t.Error("verify with signing context should fail")
	}

	if sctx.Role() != RoleSign || vctx.Role() != RoleVerify {
		t.Errorf("roles = %s/%s, want sign/verify", sctx.Role(), vctx.Role())
	}

	var none *Context
	if none.Role().String() != "none" {
		t.Errorf("nil context role = %s, want none", none.Role())
	}
}

// TestVerifyBitFlip tests that flipping any single bit breaks the signature.
func TestVerifyBitFlip(t *testing.T) {
	sctx, vctx := testContexts()
	key, _ := GenerateKey()
	digest := HashDigest([]byte("flip"))

	sig, _ := key.Sign(sctx, digest)
	raw := sig.Bytes()

	for _, bit := range []int{0, 7, 100, 383, SignatureSize*8 - 1} {
		flipped := make([]byte, len(raw))
		copy(flipped, raw)
		flipped[bit/8] ^= 1 << (bit % 8)

		bad, err := SignatureFromBytes(flipped)
		if err != nil {
			t.Fatalf("wrap flipped signature: %v", err)
		}

		if bad.Verify(vctx, digest, key.PublicKey()) {
			t.Errorf("signature with bit %d flipped should not verify", bit)
		}
	}
}

// TestVerifyNilInputs tests that nil inputs fail closed.
func TestVerifyNilInputs(t *testing.T) {
	sctx, vctx := testContexts()
	key, _ := GenerateKey()
	digest := HashDigest([]byte("a"))
	sig, _ := key.Sign(sctx, digest)

	if sig.Verify(vctx, digest, nil) {
		t.Error("nil public key should not verify")
	}

	var nilSig *Signature
	if nilSig.Verify(vctx, digest, key.PublicKey()) {
		t.Error("nil signature should not verify")
	}
}

// TestDeterministicKey tests that the same seed produces the same key.
func TestDeterministicKey(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	key1, _ := GenerateKeyFromSeed(seed)
	key2, _ := GenerateKeyFromSeed(seed)

	if !key1.PublicKey().Equal(key2.PublicKey()) {
		t.Error("same seed should produce same key")
	}

	if _, err := GenerateKeyFromSeed(seed[:16]); !errors.Is(err, ErrSeedTooShort) {
		t.Errorf("short seed: got %v, want ErrSeedTooShort", err)
	}
}

// TestDeriveKey tests label and index separation.
func TestDeriveKey(t *testing.T) {
	a0, _ := DeriveKey("net", 0)
	a0again, _ := DeriveKey("net", 0)
	a1, _ := DeriveKey("net", 1)
	b0, _ := DeriveKey("other", 0)

	if !a0.PublicKey().Equal(a0again.PublicKey()) {
		t.Error("derivation should be deterministic")
	}

	if a0.PublicKey().Equal(a1.PublicKey()) {
		t.Error("different index should give a different key")
	}

	if a0.PublicKey().Equal(b0.PublicKey()) {
		t.Error("different label should give a different key")
	}
}

// TestPublicKeyEncoding tests the public key bytes round trip.
func TestPublicKeyEncoding(t *testing.T) {
	key, _ := GenerateKey()
	raw := key.PublicKey().Bytes()

	decoded, err := PublicKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Error("decoded key differs from original")
	}

	if _, err := PublicKeyFromBytes(raw[:10]); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("short key: got %v, want ErrInvalidPublicKey", err)
	}

	if _, err := SignatureFromBytes(make([]byte, 3)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("short signature: got %v, want ErrInvalidSignature", err)
	}
}

// TestDigest tests digest helpers.
func TestDigest(t *testing.T) {
	d := HashDigest([]byte("x"))

	if d.IsZero() {
		t.Error("hash of data should not be zero")
	}

	if len(d.String()) != DigestSize*2 {
		t.Errorf("hex length: got %d, want %d", len(d.String()), DigestSize*2)
	}

	if d.Short() != d.String()[:10] {
		t.Errorf("short form: got %s", d.Short())
	}

	if HashDigest([]byte("x")) != d {
		t.Error("digest should be deterministic")
	}
}

// BenchmarkVerify measures a single signature check.
func BenchmarkVerify(b *testing.B) {
	sctx, vctx := testContexts()
	key, _ := GenerateKey()
	digest := HashDigest([]byte("bench"))
	sig, _ := key.Sign(sctx, digest)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sig.Verify(vctx, digest, key.PublicKey())
	}
}
