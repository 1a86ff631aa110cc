package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"QuorumCore/internal/crypto"
	"QuorumCore/internal/keystore"
	"QuorumCore/internal/logger"
	"QuorumCore/internal/order"
	"QuorumCore/internal/quorum"
	"QuorumCore/internal/replica"
	"QuorumCore/internal/verifypool"
)

// asyncTimeout bounds how long the simulator waits for the pool.
const asyncTimeout = 30 * time.Second

// ErrDisagree is returned when sync and async verification differ.
var ErrDisagree = errors.New("sync and async verification disagree")

// Report is the outcome of one simulated round.
type Report struct {
	Digest  crypto.Digest // Digest is the value the replicas signed
	Parts   int           // Parts is the number of signatures in the certificate
	Bitmap  []byte        // Bitmap is the signer bitmap of the certificate
	SyncOK  bool          // SyncOK is the inline verification result
	AsyncOK bool          // AsyncOK is the pool verification result
	Honest  []int         // Honest is the order proposed by honest replicas
	Order   []int         // Order is the resolved command order
	Stats   verifypool.Stats
}

// simulate runs one certificate and ordering round.
func simulate(cfg *Config) (*Report, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))

	keys, err := deriveKeys(cfg)
	if err != nil {
		return nil, err
	}

	set, err := buildSet(cfg, keys)
	if err != nil {
		return nil, err
	}

	rep := &Report{Digest: crypto.HashDigest([]byte(fmt.Sprintf("qcsim round %d", cfg.Seed)))}

	cert, err := signCert(cfg, keys, set, rep.Digest)
	if err != nil {
		return nil, err
	}
	rep.Parts = cert.Len()
	rep.Bitmap = cert.Signers().Bytes()

	vctx := crypto.NewVerifyingContext(nil)
	rep.SyncOK = cert.Verify(set, vctx)

	pool := verifypool.New(vctx, verifypool.WithWorkers(cfg.Workers))

	ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
	defer cancel()

	rep.AsyncOK, err = cert.VerifyAsync(set, pool).Wait(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("await async verification:\n%w", err)
	}

	if err := pool.Close(); err != nil {
		return nil, fmt.Errorf("close pool:\n%w", err)
	}
	rep.Stats = pool.Stats()

	logger.Info("certificate verified",
		"obj_hash", rep.Digest.Short(),
		"parts", rep.Parts,
		"signers", hex.EncodeToString(rep.Bitmap),
		"majority", set.NMajority(),
		"sync", rep.SyncOK,
		"async", rep.AsyncOK,
		"pool_verified", rep.Stats.Verified,
		"pool_failed", rep.Stats.Failed,
	)

	rep.Honest = rng.Perm(cfg.Commands)
	rep.Order = resolve(cfg, set, rep.Digest, rep.Honest)

	logger.Info("order resolved",
		"obj_hash", rep.Digest.Short(),
		"byzantine", cfg.Byzantine,
		"threshold", replica.VoteThreshold(set),
		"honest", fmt.Sprint(rep.Honest),
		"resolved", fmt.Sprint(rep.Order),
		logger.Timed(start),
	)

	return rep, nil
}

// deriveKeys derives one key per replica from the seed.
func deriveKeys(cfg *Config) ([]*crypto.PrivateKey, error) {
	label := fmt.Sprintf("qcsim-%d", cfg.Seed)
	keys := make([]*crypto.PrivateKey, cfg.Replicas)

	for rid := range keys {
		k, err := crypto.DeriveKey(label, rid)
		if err != nil {
			return nil, fmt.Errorf("derive key %d:\n%w", rid, err)
		}
		keys[rid] = k
	}

	return keys, nil
}

// buildSet creates the replica set, round-tripping keys through the key
// store when a data path is configured.
func buildSet(cfg *Config, keys []*crypto.PrivateKey) (*replica.Set, error) {
	var opts []replica.Option
	if cfg.Majority > 0 {
		opts = append(opts, replica.WithMajority(cfg.Majority))
	}

	pks := make([]*crypto.PublicKey, len(keys))
	for rid, k := range keys {
		pks[rid] = k.PublicKey()
	}

	if cfg.DataPath == "" {
		return replica.NewSet(pks, opts...)
	}

	store, err := keystore.Open(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open key store:\n%w", err)
	}
	defer store.Close()

	if err := store.PutAll(pks); err != nil {
		return nil, fmt.Errorf("store keys:\n%w", err)
	}

	set, err := replica.LoadSet(store, cfg.Replicas, opts...)
	if err != nil {
		return nil, fmt.Errorf("load replica set:\n%w", err)
	}

	logger.Debug("replica keys loaded", "path", cfg.DataPath, "replicas", set.NReplicas())

	return set, nil
}

// signCert collects signatures from the first signers replicas and corrupts
// the first Corrupt of them by flipping one bit.
func signCert(cfg *Config, keys []*crypto.PrivateKey, set *replica.Set, digest crypto.Digest) (*quorum.ThresholdSig, error) {
	sctx := crypto.NewSigningContext(nil)
	cert := quorum.NewThresholdSig(set, digest)

	for rid := 0; rid < cfg.signers(); rid++ {
		sig, err := keys[rid].Sign(sctx, digest)
		if err != nil {
			return nil, fmt.Errorf("sign %d:\n%w", rid, err)
		}

		if rid < cfg.Corrupt {
			if sig, err = flipBit(sig); err != nil {
				return nil, err
			}
			logger.Debug("corrupted signature", "rid", rid)
		}

		cert.AddPart(rid, sig)
	}

	return cert, nil
}

// flipBit returns sig with its lowest bit inverted.
func flipBit(sig *crypto.Signature) (*crypto.Signature, error) {
	raw := sig.Bytes()
	raw[len(raw)-1] ^= 1

	bad, err := crypto.SignatureFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("wrap corrupted signature:\n%w", err)
	}

	return bad, nil
}

// resolve collects proposals, the last Byzantine replicas reversing the
// honest order, and resolves them.
func resolve(cfg *Config, set *replica.Set, digest crypto.Digest, honest []int) []int {
	reversed := make([]int, len(honest))
	for i, c := range honest {
		reversed[len(honest)-1-i] = c
	}

	oc := order.NewVoteWeighted(set, digest)
	for rid := 0; rid < cfg.Replicas; rid++ {
		if rid >= cfg.Replicas-cfg.Byzantine {
			oc.Propose(rid, reversed)
		} else {
			oc.Propose(rid, honest)
		}
	}

	return oc.ResolveOrder(set, cfg.Commands)
}
