package evolution

import (
	"context"
	"math"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/logging"
)

// StagnationThresholds configures when each recovery tier fires. The values
// are empirically tuned, so they are configuration rather than constants.
type StagnationThresholds struct {
	// ShortTerm generations without fitness improvement trigger sigma
	// re-expansion; twice that triggers probe injection around the best
	// coupling value.
	ShortTerm int `json:"short_term"` // Default: 15

	// Gravity generations with the best xi barely moving trigger the
	// gravity-specific diversity injection.
	Gravity int `json:"gravity"` // Default: 25

	// DeepWindow is the digits-solved history window; a window with no
	// improvement on any observable counts one deep-stagnation tick.
	DeepWindow int `json:"deep_window"` // Default: 10

	// LongTerm generations without any fitness change trigger the combined
	// aggressive recovery.
	LongTerm int `json:"long_term"` // Default: 100

	// InjectEvery stagnant generations, 10% fresh random individuals are
	// added during breeding.
	InjectEvery int `json:"inject_every"` // Default: 30

	// Periodic parameter bursts.
	CrossoverBurstEvery int `json:"crossover_burst_every"` // Default: 100
	MutationBurstEvery  int `json:"mutation_burst_every"`  // Default: 200
}

// DefaultStagnationThresholds returns the tuned defaults.
func DefaultStagnationThresholds() StagnationThresholds {
	return StagnationThresholds{
		ShortTerm:           15,
		Gravity:             25,
		DeepWindow:          10,
		LongTerm:            100,
		InjectEvery:         30,
		CrossoverBurstEvery: 100,
		MutationBurstEvery:  200,
	}
}

func (t *StagnationThresholds) clamp() {
	def := DefaultStagnationThresholds()
	fix := func(v *int, fallback int) {
		if *v <= 0 {
			*v = fallback
		}
	}
	fix(&t.ShortTerm, def.ShortTerm)
	fix(&t.Gravity, def.Gravity)
	fix(&t.DeepWindow, def.DeepWindow)
	fix(&t.LongTerm, def.LongTerm)
	fix(&t.InjectEvery, def.InjectEvery)
	fix(&t.CrossoverBurstEvery, def.CrossoverBurstEvery)
	fix(&t.MutationBurstEvery, def.MutationBurstEvery)
}

// xiQuietEps: the gravity counter increments when the best xi moves less than
// this between generations.
const xiQuietEps = 1e-12

// stagnationState tracks the independent stagnation counters for one run.
type stagnationState struct {
	shortTerm int // generations without fitness improvement
	gravity   int // generations with best xi barely changing
	deep      int // deep-stagnation ticks from the digits window
	longTerm  int // generations without any fitness change

	lastFitness float64
	lastXi      float64
	haveLast    bool

	digitsWindow [][3]int
}

func newStagnationState() *stagnationState {
	return &stagnationState{lastFitness: math.Inf(1)}
}

// observe folds one generation's best candidate into the counters.
func (s *stagnationState) observe(best fitness.Candidate, window int) {
	if best.Fitness < s.lastFitness {
		s.shortTerm = 0
		s.longTerm = 0
	} else {
		s.shortTerm++
		s.longTerm++
	}

	xi := best.Genes[genome.GeneXi]
	if s.haveLast && math.Abs(xi-s.lastXi) < xiQuietEps {
		s.gravity++
	} else {
		s.gravity = 0
	}

	s.digitsWindow = append(s.digitsWindow, [3]int{best.DigitsC(), best.DigitsAlpha(), best.DigitsG()})
	if len(s.digitsWindow) > window {
		s.digitsWindow = s.digitsWindow[1:]
	}
	if len(s.digitsWindow) == window && !s.windowImproved() {
		s.deep++
	}

	if best.Fitness < s.lastFitness {
		s.lastFitness = best.Fitness
	}
	s.lastXi = xi
	s.haveLast = true
}

// windowImproved reports whether any observable gained a digit across the
// tracked window.
func (s *stagnationState) windowImproved() bool {
	first, last := s.digitsWindow[0], s.digitsWindow[len(s.digitsWindow)-1]
	for i := 0; i < 3; i++ {
		if last[i] > first[i] {
			return true
		}
	}
	return false
}

func (s *stagnationState) reset() {
	s.shortTerm = 0
	s.gravity = 0
	s.deep = 0
	s.longTerm = 0
	s.digitsWindow = s.digitsWindow[:0]
}

// applyStagnationInterventions runs the escalating recovery ladder after a
// generation's breeding. Each counter triggers independently; the long-term
// tier subsumes the rest for that generation.
func (c *Controller) applyStagnationInterventions(ctx context.Context, population []genome.Chromosome) {
	logger := logging.GetLogger()
	s := c.stagnation
	th := c.params.Stagnation

	if s.longTerm >= th.LongTerm {
		logger.Warn(ctx, "Extended stagnation (%d generations): combined aggressive recovery", s.longTerm)
		c.aggressiveRecovery(population)
		s.reset()
		return
	}

	if s.shortTerm >= th.ShortTerm {
		c.expandSigma()
	}
	if s.shortTerm >= 2*th.ShortTerm {
		logger.Info(ctx, "Short-term stagnation (%d): probe injection around best coupling", s.shortTerm)
		c.injectProbes(population, 0.05)
	}
	if s.gravity >= th.Gravity {
		logger.Info(ctx, "Gravity stagnation (%d): coupling diversity injection", s.gravity)
		c.injectCouplingDiversity(population, 0.25)
		s.gravity = 0
	}
	if s.deep >= 3 {
		logger.Info(ctx, "Deep stagnation (%d windows): re-annealing around elites", s.deep)
		c.reannealAroundElites(population, 0.20)
		c.reseedFromHallOfFame(population, 0.10)
		s.deep = 0
	}
}

// expandSigma widens the mutation spread to escape a local basin.
func (c *Controller) expandSigma() {
	c.params.SigmaKinetic = math.Min(c.params.SigmaKinetic*1.5, 0.5)
	c.params.SigmaShape = math.Min(c.params.SigmaShape*1.5, 0.5)
	c.params.SigmaCoupling = math.Min(c.params.SigmaCoupling*1.5, 0.5)
}

// injectProbes replaces a fraction of the population with variants clustered
// tightly around the best candidate's alpha coupling.
func (c *Controller) injectProbes(population []genome.Chromosome, fraction float64) {
	if c.best == nil {
		return
	}

	count := int(float64(len(population)) * fraction)
	for i := 0; i < count; i++ {
		idx := len(population) - 1 - i
		if idx < 0 {
			break
		}
		probe := c.best.Genes
		probe[genome.GeneEM] += c.rng.NormFloat64() * 1e-8
		probe.Clamp()
		if c.locked {
			probe.ApplyLock()
		}
		population[idx] = probe
	}
}

// injectCouplingDiversity replaces a fraction of the population with
// individuals whose coupling genes are interpolated toward the exact-target
// values (both observables hit target at zero coupling).
func (c *Controller) injectCouplingDiversity(population []genome.Chromosome, fraction float64) {
	if c.best == nil {
		return
	}

	count := int(float64(len(population)) * fraction)
	for i := 0; i < count; i++ {
		idx := c.rng.Intn(len(population))
		ch := c.best.Genes

		t := c.rng.Float64()
		ch[genome.GeneEM] *= 1 - t
		ch[genome.GeneXi] *= 1 - t
		ch.Clamp()
		if c.locked {
			ch.ApplyLock()
		}
		population[idx] = ch
	}
}

// reannealAroundElites jitters a fraction of the population around randomly
// chosen elites with the current sigma.
func (c *Controller) reannealAroundElites(population []genome.Chromosome, fraction float64) {
	if len(c.topK) == 0 {
		return
	}

	cfg := c.mutationConfig()
	count := int(float64(len(population)) * fraction)
	for i := 0; i < count; i++ {
		idx := c.rng.Intn(len(population))
		seed := c.topK[c.rng.Intn(len(c.topK))].Genes
		genome.Mutate(c.rng, &seed, cfg, c.guidance(), c.locked)
		population[idx] = seed
	}
}

// reseedFromHallOfFame replaces a fraction of the population with strongly
// mutated archive members.
func (c *Controller) reseedFromHallOfFame(population []genome.Chromosome, fraction float64) {
	if c.hof.Len() == 0 {
		return
	}

	cfg := c.mutationConfig()
	cfg.Rate = 1.0
	cfg.SigmaKinetic *= 4
	cfg.SigmaShape *= 4
	cfg.SigmaCoupling *= 4

	count := int(float64(len(population)) * fraction)
	for i := 0; i < count; i++ {
		idx := c.rng.Intn(len(population))
		seed, ok := c.hof.Sample(c.rng)
		if !ok {
			return
		}
		genome.Mutate(c.rng, &seed, cfg, c.guidance(), c.locked)
		population[idx] = seed
	}
}

// aggressiveRecovery is the last-resort combined intervention: relax all
// mutation parameters, inject 50% random individuals, and force diversity in
// every dimension at once.
func (c *Controller) aggressiveRecovery(population []genome.Chromosome) {
	c.params.MutationRate = math.Max(c.params.MutationRate, 0.5)
	c.params.SigmaKinetic = 0.1
	c.params.SigmaShape = 0.2
	c.params.SigmaCoupling = 0.3

	for i := range population {
		if i%2 == 0 {
			population[i] = genome.Random(c.rng)
			if c.locked {
				population[i].ApplyLock()
			}
		}
	}

	c.injectCouplingDiversity(population, 0.25)
	c.reseedFromHallOfFame(population, 0.15)
	enforceCouplingDiversity(c.rng, population, c.locked)
}
