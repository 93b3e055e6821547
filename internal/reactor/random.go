package reactor

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

func seededRNG(seed int64) *rand.Rand {
	// Non-cryptographic PRNG is intentional for reproducible sessions.
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "core"), seedWord(seed, "neutron")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

func roll(rng *rand.Rand, probability float64) bool {
	if probability <= 0 {
		return false
	}
	return rng.Float64() < probability
}
