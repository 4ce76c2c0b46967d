package evolution

import (
	"math/rand"
	"sort"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
)

// HallOfFameCapacity bounds the best-ever archive.
const HallOfFameCapacity = 30

// HallOfFame is a bounded, fitness-sorted archive of historically best
// candidates, deduplicated by fitness value. It is used only as a reseeding
// source during stagnation recovery and never participates in normal breeding.
// Owned exclusively by the controller; mutated only between generations, so it
// needs no locking.
type HallOfFame struct {
	entries []fitness.Candidate
}

// NewHallOfFame creates an empty archive.
func NewHallOfFame() *HallOfFame {
	return &HallOfFame{}
}

// Add inserts a candidate, keeping the archive sorted ascending by fitness,
// free of duplicate fitness values, and truncated to capacity.
func (h *HallOfFame) Add(cand fitness.Candidate) {
	for _, e := range h.entries {
		if e.Fitness == cand.Fitness {
			return
		}
	}

	h.entries = append(h.entries, cand)
	sort.Slice(h.entries, func(i, j int) bool {
		return h.entries[i].Fitness < h.entries[j].Fitness
	})

	if len(h.entries) > HallOfFameCapacity {
		h.entries = h.entries[:HallOfFameCapacity]
	}
}

// Len returns the number of archived candidates.
func (h *HallOfFame) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the archive, best first.
func (h *HallOfFame) Entries() []fitness.Candidate {
	out := make([]fitness.Candidate, len(h.entries))
	copy(out, h.entries)
	return out
}

// Sample returns the chromosome of a random archived candidate, biased toward
// the front of the archive. Returns false when the archive is empty.
func (h *HallOfFame) Sample(rng *rand.Rand) (genome.Chromosome, bool) {
	n := len(h.entries)
	if n == 0 {
		return genome.Chromosome{}, false
	}

	// Two uniform draws, keep the better rank.
	i := rng.Intn(n)
	if j := rng.Intn(n); j < i {
		i = j
	}
	return h.entries[i].Genes, true
}
