package quorum

import (
	"fmt"
	"math/bits"
)

// Bitset marks which replica indices contributed to a certificate.
// Its length is fixed at creation to the replica count.
type Bitset struct {
	words []uint64
	n     int
}

// NewBitset creates an empty bitset of length n.
func NewBitset(n int) *Bitset {
	if n < 0 {
		panic(fmt.Sprintf("negative bitset length %d", n))
	}

	return &Bitset{words: make([]uint64, (n+63)/64), n: n}
}

// Len returns the number of bits.
func (b *Bitset) Len() int {
	return b.n
}

// Set marks index i.
func (b *Bitset) Set(i int) {
	b.check(i)
	b.words[i/64] |= 1 << (i % 64)
}

// Clear unmarks index i.
func (b *Bitset) Clear(i int) {
	b.check(i)
	b.words[i/64] &^= 1 << (i % 64)
}

// Get reports whether index i is marked.
func (b *Bitset) Get(i int) bool {
	b.check(i)
	return b.words[i/64]&(1<<(i%64)) != 0
}

// Count returns the number of marked indices.
func (b *Bitset) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Indices returns the marked indices in ascending order.
func (b *Bitset) Indices() []int {
	out := make([]int, 0, b.Count())

	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*64+tz)
			w &= w - 1
		}
	}

	return out
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)

	return &Bitset{words: words, n: b.n}
}

// Bytes encodes the bitset as a signer bitmap: bit i is bit i%8 of byte i/8.
func (b *Bitset) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)

	for _, i := range b.Indices() {
		out[i/8] |= 1 << (i % 8)
	}

	return out
}

// BitsetFromBytes decodes a signer bitmap of length n.
// Bits at or beyond n must be zero.
func BitsetFromBytes(bitmap []byte, n int) (*Bitset, error) {
	if len(bitmap) != (n+7)/8 {
		return nil, fmt.Errorf("bitmap size: got %d bytes, want %d", len(bitmap), (n+7)/8)
	}

	b := NewBitset(n)

	for byteIdx, v := range bitmap {
		for bit := 0; bit < 8; bit++ {
			if v&(1<<bit) == 0 {
				continue
			}

			idx := byteIdx*8 + bit
			if idx >= n {
				return nil, fmt.Errorf("bit %d set beyond length %d", idx, n)
			}

			b.Set(idx)
		}
	}

	return b, nil
}

// check panics when i is outside [0, n).
func (b *Bitset) check(i int) {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bit index %d out of range [0, %d)", i, b.n))
	}
}
