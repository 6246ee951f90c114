package worldgen

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue hashes a root seed and label into a stable RNG seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG derives a subsystem RNG from the root seed.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// EntityRNG returns a reproducible generator keyed by an entity id. Visual
// sub-features (building antennas, palette shades, sign text) draw from this
// stream so re-evaluating the same entity always yields the same layout,
// independent of the one-shot world-layout RNG.
func EntityRNG(entityID string) *rand.Rand {
	return NewDeterministicRNG(entityID, "detail")
}
