package engine

import (
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math"
	"math/rand"
)

// NewEntropy returns a uniformly random, non-zero, non-negative seed
// component. Commit-time and reveal-time entropy both come from here, so
// the final seed is unpredictable until the reveal actually happens.
func NewEntropy() (int64, error) {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return 0, err
	}

	v := int64(binary.BigEndian.Uint64(b[:]) & math.MaxInt64)
	if v == 0 {
		v = 1
	}
	return v, nil
}

func hashUint64(h hash.Hash, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	h.Write(b[:])
}

// MixSeed folds commit entropy, reveal entropy and the session id into
// the final mission seed. Every generated artifact of a session derives
// from this one value.
func MixSeed(commit, reveal int64, sessionID string) int64 {
	h := sha256.New()
	hashUint64(h, uint64(commit))
	hashUint64(h, uint64(reveal))
	h.Write([]byte(sessionID))

	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}

// SubSeed derives an independent stream seed for one named draw. Distinct
// (domain, n) pairs yield statistically independent streams from the same
// session seed, which keeps replays stable no matter how many draws an
// individual resolution consumes.
func SubSeed(seed int64, domain string, n uint64) int64 {
	h := sha256.New()
	hashUint64(h, uint64(seed))
	h.Write([]byte(domain))
	hashUint64(h, n)

	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}

func rngFor(seed int64, domain string, n uint64) *rand.Rand {
	return rand.New(rand.NewSource(SubSeed(seed, domain, n)))
}
