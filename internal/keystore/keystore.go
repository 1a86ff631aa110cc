package keystore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"QuorumCore/internal/crypto"
)

// ErrNotFound is returned when no key is registered for a replica.
var ErrNotFound = errors.New("public key not found")

// keyPrefix prefixes every public key entry.
var keyPrefix = []byte("pk:")

// Store is the replica public key directory backed by Pebble.
// Only membership keys live here, certificates are never written.
type Store struct {
	db *pebble.DB // db is the underlying Pebble database
}

// Open opens or creates a store at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(4 << 20), // 4 MB cache, the directory is tiny
		MemTableSize: 4 << 20,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s:\n%w", path, err)
	}

	return &Store{db: db}, nil
}

// Put registers the public key of replica rid.
// Membership changes are rare, so writes are synced.
func (s *Store) Put(rid int, pk *crypto.PublicKey) error {
	return s.db.Set(encodeKey(rid), pk.Bytes(), pebble.Sync)
}

// PutAll atomically registers keys for replicas 0..len(pks)-1.
func (s *Store) PutAll(pks []*crypto.PublicKey) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for rid, pk := range pks {
		if pk == nil {
			continue
		}

		if err := batch.Set(encodeKey(rid), pk.Bytes(), nil); err != nil {
			return fmt.Errorf("batch key %d:\n%w", rid, err)
		}
	}

	return batch.Commit(pebble.Sync)
}

// Get returns the public key of replica rid.
func (s *Store) Get(rid int) (*crypto.PublicKey, error) {
	value, closer, err := s.db.Get(encodeKey(rid))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	pk, err := crypto.PublicKeyFromBytes(value)
	if err != nil {
		return nil, fmt.Errorf("decode key %d:\n%w", rid, err)
	}

	return pk, nil
}

// Delete removes the key of replica rid.
func (s *Store) Delete(rid int) error {
	return s.db.Delete(encodeKey(rid), pebble.Sync)
}

// Iterate calls fn for every registered key in ascending rid order.
// If fn returns an error, iteration stops and the error is returned.
func (s *Store) Iterate(fn func(rid int, pk *crypto.PublicKey) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: keyPrefix,
		UpperBound: prefixUpperBound(keyPrefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rid, ok := decodeKey(iter.Key())
		if !ok {
			continue
		}

		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}

		pk, err := crypto.PublicKeyFromBytes(value)
		if err != nil {
			return fmt.Errorf("decode key %d:\n%w", rid, err)
		}

		if err := fn(rid, pk); err != nil {
			return err
		}
	}

	return iter.Error()
}

// Count returns the number of registered keys.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.Iterate(func(int, *crypto.PublicKey) error {
		n++
		return nil
	})

	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeKey builds "pk:" || uint32 big-endian rid, so iteration follows rid order.
func encodeKey(rid int) []byte {
	if rid < 0 {
		panic(fmt.Sprintf("negative replica id %d", rid))
	}

	key := make([]byte, len(keyPrefix)+4)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint32(key[len(keyPrefix):], uint32(rid))

	return key
}

// decodeKey extracts the rid from a store key.
func decodeKey(key []byte) (int, bool) {
	if len(key) != len(keyPrefix)+4 {
		return 0, false
	}

	return int(binary.BigEndian.Uint32(key[len(keyPrefix):])), true
}

// prefixUpperBound computes the exclusive upper bound for a prefix scan.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper
		}
	}

	return nil
}
