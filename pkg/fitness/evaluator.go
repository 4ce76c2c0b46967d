// Package fitness turns chromosomes into scored Candidates. The evaluator
// wraps the observable calculator, applies the progressive constraint gate and
// the penalty stack, and never lets an error escape: degenerate numerics come
// back as penalties, internal panics as saturated candidates.
package fitness

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

// Penalty weights, escalating with the severity of the violation.
const (
	penaltyVEVNotReal    = 25.0
	penaltyGNonPositive  = 100.0
	penaltyUnstable      = 50.0
	penaltyNegCoupling   = 10.0
	penaltyCausality     = 5.0
	penaltyGhost         = 1.0
	penaltyStabilitySign = 0.5

	eleganceWeight = 0.01
)

// cacheCap bounds the evaluation memo; the cache is dropped wholesale once it
// grows past this.
const cacheCap = 100000

// Evaluator scores chromosomes. Safe for concurrent use by the batch
// dispatcher's workers.
type Evaluator struct {
	schedule GateSchedule

	mu    sync.RWMutex
	cache map[string]Candidate
}

// NewEvaluator creates an evaluator with the given gate schedule.
func NewEvaluator(schedule GateSchedule) *Evaluator {
	return &Evaluator{
		schedule: schedule,
		cache:    make(map[string]Candidate),
	}
}

// Schedule returns the evaluator's gate schedule.
func (e *Evaluator) Schedule() GateSchedule {
	return e.schedule
}

// Evaluate scores one chromosome. It never returns an error and never panics:
// any internal numeric exception is converted into a maximal-fitness candidate
// with saturated error fields.
func (e *Evaluator) Evaluate(ch genome.Chromosome, generation int, recovery, locked bool) (cand Candidate) {
	key := cacheKey(ch, generation, recovery, locked)

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached
	}

	defer func() {
		if r := recover(); r != nil {
			cand = saturatedCandidate(ch, generation)
		}
		e.store(key, cand)
	}()

	cand = e.evaluate(ch, generation, recovery, locked)
	return cand
}

func (e *Evaluator) evaluate(ch genome.Chromosome, generation int, recovery, locked bool) Candidate {
	var penalties float64

	// Vacuum structure first: everything downstream depends on phi0.
	vev := physics.VacuumExpectation(ch)
	if !vev.IsReal {
		penalties += penaltyVEVNotReal
	}

	// Effective couplings.
	alphaModel := physics.EffectiveAlpha(ch, vev.Phi0, locked)
	gRes := physics.EffectiveG(ch, vev.Phi0)
	if gRes.GModel <= 0 {
		penalties += penaltyGNonPositive
	}
	if gRes.Unstable {
		penalties += penaltyUnstable
	}

	couplingGene := ch[genome.GeneEM]
	if locked {
		couplingGene = ch[genome.GeneC3]
	}
	if couplingGene < 0 {
		penalties += penaltyNegCoupling
	}

	// Propagation speed.
	disp := physics.Dispersion(ch)
	if disp.WrongCausality {
		penalties += penaltyCausality
	}

	// Relative errors; degenerate observables saturate to 1.
	deltaC := 1.0
	if !disp.Degenerate {
		deltaC = math.Abs(disp.CModel-physics.CTarget) / physics.CTarget
	}
	deltaAlpha := math.Abs(alphaModel-physics.AlphaTarget) / physics.AlphaTarget
	deltaG := 1.0
	if gRes.GModel > 0 {
		deltaG = math.Abs(gRes.GModel-physics.GTarget) / physics.GTarget
	}

	cand := Candidate{
		ID:         uuid.New().String(),
		Genes:      ch,
		CModel:     disp.CModel,
		AlphaModel: alphaModel,
		GModel:     gRes.GModel,
		DeltaC:     deltaC,
		DeltaAlpha: deltaAlpha,
		DeltaG:     deltaG,
		Phi0:       vev.Phi0,
		Generation: generation,
	}

	// Progressive constraint gate on the two hard-constrained observables.
	epsC, epsG := e.schedule.Tolerances(generation, recovery)
	if deltaC > epsC || deltaG > epsG {
		cand.Fitness = KnockoutFitness
		return cand
	}

	cand.Elegance = elegance(ch)

	fitness := deltaAlpha + penalties
	fitness += shapePenalty(ch)
	fitness += anisotropyPenalty(physics.Anisotropy(ch))
	fitness -= eleganceWeight * cand.Elegance

	cand.Fitness = fitness
	return cand
}

// shapePenalty applies the sign-consistency and stability-sign checks plus the
// structural size penalty on oversized shape coefficients.
func shapePenalty(ch genome.Chromosome) float64 {
	var p float64

	if physics.HasGhost(ch) {
		p += penaltyGhost
	}
	if ch[genome.GeneC2] <= 0 || ch[genome.GeneC3] <= 0 {
		p += penaltyStabilitySign
	}

	p += 0.2 * math.Max(0, math.Abs(ch[genome.GeneC2])-0.5)
	p += 0.1 * math.Max(0, math.Abs(ch[genome.GeneC3])-0.25)

	return p
}

// anisotropyPenalty is zero below 1e-12, linear up to 1e-8, steep above.
func anisotropyPenalty(a float64) float64 {
	switch {
	case a <= 1e-12:
		return 0
	case a <= 1e-8:
		return a * 1e4
	default:
		return 1e-4 + a*100
	}
}

// saturatedCandidate is what an internal exception degrades to.
func saturatedCandidate(ch genome.Chromosome, generation int) Candidate {
	return Candidate{
		ID:         uuid.New().String(),
		Genes:      ch,
		Fitness:    KnockoutFitness,
		DeltaC:     1,
		DeltaAlpha: 1,
		DeltaG:     1,
		Generation: generation,
	}
}

func (e *Evaluator) store(key string, cand Candidate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.cache) >= cacheCap {
		e.cache = make(map[string]Candidate)
	}
	e.cache[key] = cand
}

// CacheSize reports the number of memoized evaluations.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// cacheKey builds a high-precision identity for one evaluation request. The
// generation and mode flags are part of the key because the gate tolerances
// depend on them.
func cacheKey(ch genome.Chromosome, generation int, recovery, locked bool) string {
	var b strings.Builder
	for _, g := range ch {
		b.WriteString(strconv.FormatFloat(g, 'e', 17, 64))
		b.WriteByte('|')
	}
	b.WriteString(strconv.Itoa(generation))
	if recovery {
		b.WriteString("|r")
	}
	if locked {
		b.WriteString("|l")
	}
	return b.String()
}
