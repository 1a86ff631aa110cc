package replica

import (
	"errors"
	"path/filepath"
	"testing"

	"QuorumCore/internal/crypto"
	"QuorumCore/internal/keystore"
)

// testKeys derives n deterministic public keys.
func testKeys(t *testing.T, n int) []*crypto.PublicKey {
	t.Helper()

	pks := make([]*crypto.PublicKey, n)
	for i := range pks {
		k, err := crypto.DeriveKey("replica-test", i)
		if err != nil {
			t.Fatalf("derive key %d: %v", i, err)
		}
		pks[i] = k.PublicKey()
	}

	return pks
}

func TestQuorumArithmetic(t *testing.T) {
	tests := []struct {
		n, f, quorum int
	}{
		{1, 0, 1},
		{2, 0, 2},
		{3, 0, 3},
		{4, 1, 3},
		{5, 1, 4},
		{6, 1, 5},
		{7, 2, 5},
		{10, 3, 7},
		{100, 33, 67},
	}

	for _, tt := range tests {
		if got := NumFaulty(tt.n); got != tt.f {
			t.Errorf("NumFaulty(%d) = %d, want %d", tt.n, got, tt.f)
		}

		if got := QuorumSize(tt.n); got != tt.quorum {
			t.Errorf("QuorumSize(%d) = %d, want %d", tt.n, got, tt.quorum)
		}

		// n - f must match ceil((2n+1)/3)
		if want := (2*tt.n + 1 + 2) / 3; QuorumSize(tt.n) != want {
			t.Errorf("QuorumSize(%d) = %d, ceil((2n+1)/3) = %d", tt.n, QuorumSize(tt.n), want)
		}
	}
}

func TestNewSet(t *testing.T) {
	s, err := NewSet(testKeys(t, 4))
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	if s.NReplicas() != 4 || s.NMajority() != 3 {
		t.Errorf("got n=%d majority=%d, want 4/3", s.NReplicas(), s.NMajority())
	}

	if VoteThreshold(s) != 2 {
		t.Errorf("VoteThreshold = %d, want 2", VoteThreshold(s))
	}
}

func TestNewSetErrors(t *testing.T) {
	if _, err := NewSet(nil); !errors.Is(err, ErrEmptySet) {
		t.Errorf("empty set: got %v, want ErrEmptySet", err)
	}

	if _, err := NewSet(testKeys(t, 3), WithMajority(4)); !errors.Is(err, ErrMajorityTooLarge) {
		t.Errorf("majority 4 of 3: got %v, want ErrMajorityTooLarge", err)
	}

	s, err := NewSet(testKeys(t, 3), WithMajority(3))
	if err != nil {
		t.Fatalf("majority == n should be allowed: %v", err)
	}

	if VoteThreshold(s) != 1 {
		t.Errorf("VoteThreshold = %d, want 1", VoteThreshold(s))
	}
}

// TestPubKeyOutOfRange tests that out-of-range ids fail loudly.
func TestPubKeyOutOfRange(t *testing.T) {
	s, _ := NewSet(testKeys(t, 2))

	for _, id := range []int{-1, 2, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("PubKey(%d) should panic", id)
				}
			}()
			s.PubKey(id)
		}()
	}
}

// TestLoadSet tests building a set from the key store with a missing key.
func TestLoadSet(t *testing.T) {
	store, err := keystore.Open(filepath.Join(t.TempDir(), "keys"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	pks := testKeys(t, 4)
	pks[2] = nil

	if err := store.PutAll(pks); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	s, err := LoadSet(store, 4)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}

	if s.PubKey(2) != nil {
		t.Error("replica 2 has no stored key and should be nil")
	}

	if !s.PubKey(3).Equal(pks[3]) {
		t.Error("replica 3 key mismatch")
	}
}
