// Package quorum implements quorum certificates: proof that at least
// nmajority replicas signed the same digest.
//
// A certificate is filled one part at a time by its single owner and then
// checked either inline with Verify or by fanning one Task per signer out
// to a Pool with VerifyAsync. Both paths fail closed and agree on every
// input: too few parts, a missing public key or any bad signature yields
// false. Out-of-range replica ids are caller bugs and panic.
package quorum

import (
	"QuorumCore/internal/crypto"
	"QuorumCore/internal/replica"
)

// Task is one signature check submitted to a Pool.
type Task struct {
	Digest crypto.Digest     // Digest is the attested value
	PubKey *crypto.PublicKey // PubKey is the signer's key, nil if unknown
	Sig    *crypto.Signature // Sig is the signer's signature
}

// Run checks the task under the verifying context.
func (t Task) Run(vctx *crypto.Context) bool {
	return t.Sig.Verify(vctx, t.Digest, t.PubKey)
}

// Pool runs verification tasks, typically on parallel workers.
// Every submitted task must eventually resolve its future.
type Pool interface {
	Submit(Task) *Future
}

// Cert is the quorum certificate capability.
type Cert interface {
	// Digest returns the attested value.
	Digest() crypto.Digest
	// Signers returns a copy of the contributing replica bitset.
	Signers() *Bitset
	// Len returns the number of contributed parts.
	Len() int
	// AddPart records the signature of replica rid.
	AddPart(rid int, sig *crypto.Signature)
	// Verify checks the certificate on the calling goroutine.
	Verify(cfg replica.Config, vctx *crypto.Context) bool
	// VerifyAsync checks the certificate on pool workers.
	VerifyAsync(cfg replica.Config, pool Pool) *Future
	// Clone returns an independent copy.
	Clone() Cert
}

var (
	_ Cert = (*Dummy)(nil)
	_ Cert = (*ThresholdSig)(nil)
)
