// Package order reconciles per-replica command orders into one total order.
//
// Each replica proposes a sequence of command indices. A precedence i before
// j is trusted only when at least f+1 replicas voted for it, so at least one
// honest replica agrees, and it outvotes the reverse precedence (lower index
// wins a tie). The trusted precedences are then linearized greedily by
// minimum in-degree, which also breaks any cycle a Byzantine minority could
// create. The result is a deterministic permutation of all commands.
package order

import (
	"QuorumCore/internal/crypto"
	"QuorumCore/internal/logger"
	"QuorumCore/internal/replica"
)

// Cert is the quorum order certificate capability.
type Cert interface {
	// Digest returns the value the proposals are about.
	Digest() crypto.Digest
	// Propose records replica rid's proposed command order.
	Propose(rid int, order []int)
	// Proposals returns the number of replicas that proposed.
	Proposals() int
	// ResolveOrder returns the agreed order over commands 0..cmdCount-1.
	ResolveOrder(cfg replica.Config, cmdCount int) []int
}

var (
	_ Cert = (*Dummy)(nil)
	_ Cert = (*VoteWeighted)(nil)
)

// proposals holds one proposed sequence per replica.
type proposals struct {
	digest   crypto.Digest
	cfg      replica.Config
	proposed map[int][]int
}

func newProposals(cfg replica.Config, digest crypto.Digest) proposals {
	return proposals{
		digest:   digest,
		cfg:      cfg,
		proposed: make(map[int][]int, cfg.NReplicas()),
	}
}

// Digest returns the value the proposals are about.
func (p *proposals) Digest() crypto.Digest {
	return p.digest
}

// Propose stores a copy of order for rid, replacing any earlier proposal.
// It panics when rid is out of range.
func (p *proposals) Propose(rid int, order []int) {
	replica.MustInRange(p.cfg, rid)

	seq := make([]int, len(order))
	copy(seq, order)
	p.proposed[rid] = seq
}

// Proposals returns the number of replicas that proposed.
func (p *proposals) Proposals() int {
	return len(p.proposed)
}

// Dummy resolves every input to the identity order.
type Dummy struct {
	proposals
}

// NewDummy creates an empty dummy order certificate.
func NewDummy(cfg replica.Config, digest crypto.Digest) *Dummy {
	return &Dummy{proposals: newProposals(cfg, digest)}
}

// ResolveOrder returns 0..cmdCount-1.
func (d *Dummy) ResolveOrder(_ replica.Config, cmdCount int) []int {
	out := make([]int, cmdCount)
	for i := range out {
		out[i] = i
	}
	return out
}

// VoteWeighted resolves proposals by f+1 edge votes and greedy linearization.
// It is filled by a single owner and must not be mutated during ResolveOrder.
type VoteWeighted struct {
	proposals
}

// NewVoteWeighted creates an empty order certificate for cfg's replicas.
func NewVoteWeighted(cfg replica.Config, digest crypto.Digest) *VoteWeighted {
	return &VoteWeighted{proposals: newProposals(cfg, digest)}
}

// ResolveOrder returns a permutation of 0..cmdCount-1 that respects every
// trusted precedence. Vote state is rebuilt on each call since proposals may
// still be arriving between calls. It panics if a proposal names a command
// outside [0, cmdCount).
func (v *VoteWeighted) ResolveOrder(cfg replica.Config, cmdCount int) []int {
	if cmdCount == 0 {
		return []int{}
	}

	threshold := replica.VoteThreshold(cfg)
	votes := EdgeVotes(v.sequences(), cmdCount)
	order := Linearize(Edges(votes, threshold))

	logger.With("module", "order").Debug("resolved order",
		"obj_hash", v.digest.Short(),
		"proposals", len(v.proposed),
		"threshold", threshold,
		"commands", cmdCount,
	)

	return order
}

// sequences returns the proposals in ascending replica order.
func (v *VoteWeighted) sequences() [][]int {
	out := make([][]int, 0, len(v.proposed))
	for rid := 0; rid < v.cfg.NReplicas(); rid++ {
		if seq, ok := v.proposed[rid]; ok {
			out = append(out, seq)
		}
	}
	return out
}
