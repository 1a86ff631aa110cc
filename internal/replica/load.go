package replica

import (
	"errors"
	"fmt"

	"QuorumCore/internal/crypto"
	"QuorumCore/internal/keystore"
)

// LoadSet builds a set of n replicas from the key store.
// Replicas without a stored key get a nil entry and never verify.
func LoadSet(store *keystore.Store, n int, opts ...Option) (*Set, error) {
	pubkeys := make([]*crypto.PublicKey, n)

	for rid := 0; rid < n; rid++ {
		pk, err := store.Get(rid)
		if errors.Is(err, keystore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load key %d:\n%w", rid, err)
		}

		pubkeys[rid] = pk
	}

	return NewSet(pubkeys, opts...)
}
