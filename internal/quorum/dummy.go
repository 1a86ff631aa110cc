package quorum

import (
	"QuorumCore/internal/crypto"
	"QuorumCore/internal/replica"
)

// Dummy is a certificate that always verifies.
// It is meant for test harnesses that do not exercise signatures.
type Dummy struct {
	digest crypto.Digest
	rids   *Bitset
}

// NewDummy creates an empty dummy certificate for cfg.
func NewDummy(cfg replica.Config, digest crypto.Digest) *Dummy {
	return &Dummy{digest: digest, rids: NewBitset(cfg.NReplicas())}
}

// Digest returns the attested value.
func (d *Dummy) Digest() crypto.Digest { return d.digest }

// Signers returns a copy of the recorded replica bitset.
func (d *Dummy) Signers() *Bitset { return d.rids.Clone() }

// Len returns the number of recorded parts.
func (d *Dummy) Len() int { return d.rids.Count() }

// AddPart records rid; the signature is ignored.
func (d *Dummy) AddPart(rid int, _ *crypto.Signature) {
	d.rids.Set(rid)
}

// Verify always returns true.
func (d *Dummy) Verify(replica.Config, *crypto.Context) bool { return true }

// VerifyAsync returns a future already resolved to true.
func (d *Dummy) VerifyAsync(replica.Config, Pool) *Future { return Resolved(true) }

// Clone returns an independent copy.
func (d *Dummy) Clone() Cert {
	return &Dummy{digest: d.digest, rids: d.rids.Clone()}
}
