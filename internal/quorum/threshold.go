package quorum

import (
	"QuorumCore/internal/crypto"
	"QuorumCore/internal/logger"
	"QuorumCore/internal/replica"
)

// ThresholdSig is a certificate backed by one BLS signature per signer.
// It is owned by a single accumulating goroutine and must not be mutated
// while a verification is running.
type ThresholdSig struct {
	digest crypto.Digest             // digest is the attested value
	rids   *Bitset                   // rids marks contributing replicas
	sigs   map[int]*crypto.Signature // sigs holds one signature per set bit
}

// NewThresholdSig creates an empty certificate over digest for cfg's replicas.
func NewThresholdSig(cfg replica.Config, digest crypto.Digest) *ThresholdSig {
	return &ThresholdSig{
		digest: digest,
		rids:   NewBitset(cfg.NReplicas()),
		sigs:   make(map[int]*crypto.Signature, cfg.NMajority()),
	}
}

// Digest returns the attested value.
func (c *ThresholdSig) Digest() crypto.Digest {
	return c.digest
}

// Signers returns a copy of the contributing replica bitset.
func (c *ThresholdSig) Signers() *Bitset {
	return c.rids.Clone()
}

// Len returns the number of signatures held.
func (c *ThresholdSig) Len() int {
	return len(c.sigs)
}

// AddPart records the signature of replica rid, replacing an earlier one.
// It panics when rid is out of range or sig is nil.
func (c *ThresholdSig) AddPart(rid int, sig *crypto.Signature) {
	if sig == nil {
		panic("nil signature part")
	}

	c.rids.Set(rid)
	c.sigs[rid] = sig
}

// Verify checks every signature in ascending replica order.
// It returns false without checking anything when fewer than NMajority
// parts are present, and stops at the first signature that fails.
func (c *ThresholdSig) Verify(cfg replica.Config, vctx *crypto.Context) bool {
	if c.Len() < cfg.NMajority() {
		return false
	}

	log := logger.With("module", "quorum", "obj_hash", c.digest.Short())

	for _, rid := range c.rids.Indices() {
		log.Debug("checking cert", "rid", rid)

		if !c.sigs[rid].Verify(vctx, c.digest, cfg.PubKey(rid)) {
			return false
		}
	}

	return true
}

// VerifyAsync submits one task per signer in ascending replica order and
// returns a future resolving to true only if all of them verify.
// Tasks already submitted are left to finish even when one fails.
func (c *ThresholdSig) VerifyAsync(cfg replica.Config, pool Pool) *Future {
	if c.Len() < cfg.NMajority() {
		return Resolved(false)
	}

	log := logger.With("module", "quorum", "obj_hash", c.digest.Short())
	indices := c.rids.Indices()
	futures := make([]*Future, 0, len(indices))

	for _, rid := range indices {
		log.Debug("submitting cert part", "rid", rid)

		futures = append(futures, pool.Submit(Task{
			Digest: c.digest,
			PubKey: cfg.PubKey(rid),
			Sig:    c.sigs[rid],
		}))
	}

	return All(futures)
}

// Clone returns an independent copy sharing the immutable signatures.
func (c *ThresholdSig) Clone() Cert {
	sigs := make(map[int]*crypto.Signature, len(c.sigs))
	for rid, sig := range c.sigs {
		sigs[rid] = sig
	}

	return &ThresholdSig{digest: c.digest, rids: c.rids.Clone(), sigs: sigs}
}
