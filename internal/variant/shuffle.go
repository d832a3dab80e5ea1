package variant

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math/rand/v2"
)

// Seed is the state of one deterministic random stream.
type Seed struct {
	Hi, Lo uint64
}

// Salts that separate the random streams used for one student.
const (
	orderSalt             = "order"
	alternativeSaltPrefix = "alt:"
)

func alternativeSalt(questionID string) string {
	return alternativeSaltPrefix + questionID
}

// DeriveSeed hashes the batch seed, the student index and a salt into a
// seed. Equal inputs give equal seeds on every platform.
func DeriveSeed(batchSeed string, studentIndex int, salt string) Seed {
	h := sha256.New()
	writeField(h, []byte(batchSeed))
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(int64(studentIndex)))
	writeField(h, idx[:])
	writeField(h, []byte(salt))
	sum := h.Sum(nil)
	return Seed{
		Hi: binary.BigEndian.Uint64(sum[0:8]),
		Lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}

// writeField length-prefixes b so that adjacent fields cannot run together.
func writeField(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}

// Perm is a permutation of [0, n) together with its inverse.
// Forward[i] is the new position of original element i; Inverse[p] is the
// original element placed at position p.
type Perm struct {
	Forward []int
	Inverse []int
}

// Len returns the size of the permuted domain.
func (p Perm) Len() int { return len(p.Forward) }

// IsIdentity reports whether p leaves every element in place.
func (p Perm) IsIdentity() bool {
	for i, f := range p.Forward {
		if f != i {
			return false
		}
	}
	return true
}

// Identity returns the identity permutation of size n.
func Identity(n int) Perm {
	if n < 0 {
		n = 0
	}
	fwd := make([]int, n)
	inv := make([]int, n)
	for i := range fwd {
		fwd[i] = i
		inv[i] = i
	}
	return Perm{Forward: fwd, Inverse: inv}
}

// Permutation returns a uniformly distributed permutation of size length,
// fully determined by seed. It uses a Fisher-Yates shuffle over a PCG stream
// with a rejection-sampled bounded draw, so the result does not depend on the
// Go version's rand helpers.
func Permutation(length int, seed Seed) Perm {
	if length <= 1 {
		return Identity(length)
	}

	src := rand.NewPCG(seed.Hi, seed.Lo)
	order := make([]int, length)
	for i := range order {
		order[i] = i
	}
	for i := length - 1; i > 0; i-- {
		j := int(bounded(src, uint64(i+1)))
		order[i], order[j] = order[j], order[i]
	}

	fwd := make([]int, length)
	for pos, orig := range order {
		fwd[orig] = pos
	}
	return Perm{Forward: fwd, Inverse: order}
}

// bounded returns a uniform value in [0, n).
func bounded(src rand.Source, n uint64) uint64 {
	threshold := -n % n
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % n
		}
	}
}
