package replica

import (
	"errors"
	"fmt"

	"QuorumCore/internal/crypto"
)

var (
	// ErrEmptySet is returned when a set is built without replicas.
	ErrEmptySet = errors.New("replica set is empty")

	// ErrMajorityTooLarge is returned when the quorum size exceeds the replica count.
	ErrMajorityTooLarge = errors.New("majority exceeds replica count")
)

// Config is the read-only view of the replica set used by certificates.
type Config interface {
	// NReplicas returns the total replica count n.
	NReplicas() int
	// NMajority returns the quorum size.
	NMajority() int
	// PubKey returns the public key of replica id, or nil if none is registered.
	// It panics when id is outside [0, NReplicas).
	PubKey(id int) *crypto.PublicKey
}

// NumFaulty returns the maximum number of faulty replicas f tolerated by n replicas.
func NumFaulty(n int) int {
	if n <= 0 {
		return 0
	}

	return (n - 1) / 3
}

// QuorumSize returns n - f, the smallest quorum any two of which share an honest replica.
func QuorumSize(n int) int {
	return n - NumFaulty(n)
}

// VoteThreshold returns n - nmajority + 1, which is f+1 when nmajority = n - f.
func VoteThreshold(cfg Config) int {
	return cfg.NReplicas() - cfg.NMajority() + 1
}

// Set is a static replica configuration.
type Set struct {
	pubkeys   []*crypto.PublicKey // pubkeys is indexed by replica id
	nmajority int                 // nmajority is the quorum size
}

// Option configures a Set during creation.
type Option func(*Set)

// WithMajority overrides the default quorum size.
func WithMajority(m int) Option {
	return func(s *Set) {
		s.nmajority = m
	}
}

// NewSet creates a replica set from pubkeys indexed by replica id.
// A nil entry is a replica whose key is unknown.
func NewSet(pubkeys []*crypto.PublicKey, opts ...Option) (*Set, error) {
	if len(pubkeys) == 0 {
		return nil, ErrEmptySet
	}

	s := &Set{
		pubkeys:   make([]*crypto.PublicKey, len(pubkeys)),
		nmajority: QuorumSize(len(pubkeys)),
	}
	copy(s.pubkeys, pubkeys)

	for _, opt := range opts {
		opt(s)
	}

	if s.nmajority > len(s.pubkeys) {
		return nil, fmt.Errorf("%w: %d > %d", ErrMajorityTooLarge, s.nmajority, len(s.pubkeys))
	}

	if s.nmajority < 0 {
		return nil, fmt.Errorf("negative majority %d", s.nmajority)
	}

	return s, nil
}

// NReplicas returns the number of replicas.
func (s *Set) NReplicas() int {
	return len(s.pubkeys)
}

// NMajority returns the quorum size.
func (s *Set) NMajority() int {
	return s.nmajority
}

// PubKey returns the key of replica id.
func (s *Set) PubKey(id int) *crypto.PublicKey {
	MustInRange(s, id)

	return s.pubkeys[id]
}

// MustInRange panics when id is not a replica index of cfg.
func MustInRange(cfg Config, id int) {
	if id < 0 || id >= cfg.NReplicas() {
		panic(fmt.Sprintf("replica id %d out of range [0, %d)", id, cfg.NReplicas()))
	}
}
