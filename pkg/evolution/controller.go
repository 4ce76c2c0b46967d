// Package evolution implements the population-based search runtime: batch
// evaluation, selection and diversity enforcement, adaptive operator control,
// stagnation recovery, and the run-control API consumed by external
// collaborators.
package evolution

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/theoryforge/lagrangia/pkg/errors"
	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/logging"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

// Precision-regime entry bounds: tight on the propagation speed, looser on
// the gravitational observable.
const (
	precisionRegimeEpsC = 1e-4
	precisionRegimeEpsG = 1e-2
)

// Digits both coupling observables must reach before locked mode
// auto-activates.
const lockedModeDigits = 5

// topKSize is the number of ranked candidates exposed in updates.
const topKSize = 10

// Checkpointer receives periodic best-candidate snapshots. Calls are
// fire-and-forget: failures are logged and never affect the run.
type Checkpointer interface {
	SaveBest(ctx context.Context, runID string, generation int, cand fitness.Candidate) error
}

// Controller owns all mutable state of one search session. Exactly one
// generation loop runs at a time; the fitness evaluation inside a generation
// is the only parallel section.
type Controller struct {
	mu sync.Mutex

	params    Params
	evaluator Evaluator
	rng       *rand.Rand

	// evaluatorFactory overrides the default fitness evaluator; used by tests
	// to inject synthetic scoring.
	evaluatorFactory func(fitness.GateSchedule) Evaluator

	runID  string
	status RunStatus

	stopRequested atomic.Bool
	done          chan struct{}
	updates       chan Update

	checkpointer    Checkpointer
	checkpointEvery time.Duration
	lastCheckpoint  time.Time

	// Generation-loop state, mutated only between batch evaluations.
	generation int
	population []genome.Chromosome
	best       *fitness.Candidate
	topK       []fitness.Candidate
	hof        *HallOfFame
	phase      Phase
	locked     bool
	emergency  bool
	stagnation *stagnationState
}

// Status is a point-in-time snapshot of the session.
type Status struct {
	Status     RunStatus          `json:"status"`
	RunID      string             `json:"run_id"`
	Generation int                `json:"generation"`
	Best       *fitness.Candidate `json:"best,omitempty"`
	Phase      Phase              `json:"phase"`
	Locked     bool               `json:"locked"`
	Archived   int                `json:"archived"`
}

// NewController creates an idle controller.
func NewController() *Controller {
	return &Controller{
		status:  StatusIdle,
		updates: make(chan Update, 64),
		hof:     NewHallOfFame(),
	}
}

// Updates returns the generation-update stream. Sends are non-blocking: a
// slow or absent consumer never stalls the loop.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// SetCheckpointer wires the persistence collaborator. Interval zero disables
// checkpointing.
func (c *Controller) SetCheckpointer(cp Checkpointer, every time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpointer = cp
	c.checkpointEvery = every
}

// Start begins a search session with the given parameters. It fails if a
// session is already running. Out-of-range parameters are clamped, never
// rejected.
func (c *Controller) Start(ctx context.Context, params Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusRunning {
		return errors.New(errors.RunAlreadyActive, "search session already running")
	}

	params.Clamp(ctx)

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	schedule := fitness.DefaultGateSchedule()
	schedule.StrictEpsC = params.StrictEpsC
	schedule.StrictEpsG = params.StrictEpsG

	c.params = params
	if c.evaluatorFactory != nil {
		c.evaluator = c.evaluatorFactory(schedule)
	} else {
		c.evaluator = fitness.NewEvaluator(schedule)
	}
	c.rng = rand.New(rand.NewSource(seed))
	c.runID = uuid.New().String()
	c.status = StatusRunning
	c.stopRequested.Store(false)
	c.done = make(chan struct{})

	c.generation = 0
	c.best = nil
	c.topK = nil
	c.hof = NewHallOfFame()
	c.phase = PhaseExploration
	c.locked = false
	c.emergency = false
	c.stagnation = newStagnationState()
	c.lastCheckpoint = time.Now()

	c.population = make([]genome.Chromosome, c.params.PopulationSize)
	for i := range c.population {
		c.population[i] = genome.Random(c.rng)
	}

	runCtx := logging.WithRunID(ctx, c.runID)
	logging.GetLogger().Info(runCtx, "Starting search: population=%d, workers=%d, max_generations=%d",
		c.params.PopulationSize, c.params.Workers, c.params.MaxGenerations)

	go c.run(runCtx)
	return nil
}

// Stop requests termination and blocks until the in-flight generation has
// finished. Safe to call at any point; stopping an idle controller is an
// error but has no other effect.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.status != StatusRunning {
		c.mu.Unlock()
		return errors.New(errors.RunNotActive, "no search session running")
	}
	done := c.done
	c.mu.Unlock()

	c.stopRequested.Store(true)
	<-done
	return nil
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Status:     c.status,
		RunID:      c.runID,
		Generation: c.generation,
		Best:       c.best,
		Phase:      c.phase,
		Locked:     c.locked,
		Archived:   c.hof.Len(),
	}
}

// SetLockedMode toggles the directed search regime. Toggling off stops
// enforcing the lock but never reverts already-locked genes.
func (c *Controller) SetLockedMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked = enabled
	c.params.LockedMode = enabled
}

// UpdateParams applies a new parameter set between generations, clamped.
func (c *Controller) UpdateParams(ctx context.Context, params Params) {
	c.mu.Lock()
	defer c.mu.Unlock()

	params.Clamp(ctx)
	params.Seed = c.params.Seed
	c.params = params
}

// run drives the generation loop until the cap, a stop request, or context
// cancellation. There is no early-convergence stop: the run keeps refining
// even after reaching target precision.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	for {
		if c.stopRequested.Load() || ctx.Err() != nil {
			c.finish(ctx, StatusStopped)
			return
		}

		c.mu.Lock()
		if c.generation >= c.params.MaxGenerations {
			c.mu.Unlock()
			c.finish(ctx, StatusCompleted)
			return
		}
		c.step(ctx)
		c.mu.Unlock()
	}
}

// finish transitions to a terminal status and emits the final update.
func (c *Controller) finish(ctx context.Context, status RunStatus) {
	c.mu.Lock()
	c.status = status
	update := c.snapshotUpdate(0)
	c.mu.Unlock()

	c.emit(update)
	logging.GetLogger().Info(ctx, "Search %s at generation %d", status, update.Generation)
}

// step executes one generation. Caller holds c.mu.
func (c *Controller) step(ctx context.Context) {
	genCtx := logging.WithGeneration(ctx, c.generation)
	logger := logging.GetLogger()

	start := time.Now()
	candidates := evaluateBatch(c.evaluator, c.population, c.generation, c.params.Workers, c.emergency, c.locked)
	elapsed := time.Since(start)

	survivors := candidates[:0:0]
	for _, cand := range candidates {
		if cand.Valid() {
			survivors = append(survivors, cand)
		}
	}

	if len(survivors) == 0 {
		c.emergencyRecovery(genCtx)
		c.generation++
		c.emit(c.snapshotUpdate(throughput(len(candidates), elapsed)))
		return
	}
	c.emergency = false

	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Fitness < survivors[j].Fitness
	})

	generationBest := survivors[0]
	if c.best == nil || generationBest.Fitness < c.best.Fitness {
		best := generationBest
		c.best = &best
		logger.Debug(genCtx, "New best: fitness=%.6e, delta_alpha=%.3e, digits=[%d %d %d]",
			best.Fitness, best.DeltaAlpha, best.DigitsC(), best.DigitsAlpha(), best.DigitsG())
	}

	c.topK = distinctTopK(survivors, topKSize)
	for i := 0; i < len(survivors) && i < 3; i++ {
		c.hof.Add(survivors[i])
	}

	c.updatePhase(genCtx, generationBest)
	c.maybeActivateLock(genCtx, generationBest)

	c.stagnation.observe(generationBest, c.params.Stagnation.DeepWindow)
	next := c.breed(survivors)
	c.applyStagnationInterventions(genCtx, next)
	c.population = next

	c.maybeCheckpoint(genCtx)

	c.generation++
	c.emit(c.snapshotUpdate(throughput(len(candidates), elapsed)))

	if c.generation%50 == 0 {
		logger.Info(genCtx, "Generation complete: survivors=%d, best_fitness=%.6e, phase=%s, locked=%v",
			len(survivors), c.best.Fitness, c.phase, c.locked)
	}
}

// breed builds the next population: elites first, then scheduled diversity
// injections, then tournament -> crossover -> mutation until full.
func (c *Controller) breed(survivors []fitness.Candidate) []genome.Chromosome {
	size := c.params.PopulationSize
	precisionRegime := c.inPrecisionRegime()

	next := make([]genome.Chromosome, 0, size)
	next = append(next, uniqueElites(c.rng, survivors, c.params.EliteCount, precisionRegime, c.locked)...)

	// Scheduled fresh blood while stagnating.
	if s := c.stagnation.shortTerm; s > 0 && s%c.params.Stagnation.InjectEvery == 0 {
		count := size / 10
		for i := 0; i < count && len(next) < size; i++ {
			ch := genome.Random(c.rng)
			if c.locked {
				ch.ApplyLock()
			}
			next = append(next, ch)
		}
	}

	// Periodic operator bursts.
	crossoverRate := c.params.CrossoverRate
	if c.generation > 0 && c.generation%c.params.Stagnation.CrossoverBurstEvery == 0 {
		crossoverRate = math.Min(1, crossoverRate*1.3)
	}
	cfg := c.mutationConfig()
	if c.generation > 0 && c.generation%c.params.Stagnation.MutationBurstEvery == 0 {
		cfg.Rate = math.Min(1, cfg.Rate*1.5)
	}

	guide := c.guidance()
	for len(next) < size {
		p1 := tournamentSelect(c.rng, survivors, precisionRegime)
		p2 := tournamentSelect(c.rng, survivors, precisionRegime)

		ch1, ch2 := genome.Crossover(c.rng, p1.Genes, p2.Genes, crossoverRate, c.locked)
		genome.Mutate(c.rng, &ch1, cfg, guide, c.locked)
		next = append(next, ch1)

		if len(next) < size {
			genome.Mutate(c.rng, &ch2, cfg, guide, c.locked)
			next = append(next, ch2)
		}
	}

	if precisionRegime {
		enforceCouplingDiversity(c.rng, next, c.locked)
	}

	return next
}

// emergencyRecovery handles total population collapse: reseed mostly from the
// hall of fame with strong mutation, widen the global sigma, and let the next
// generation re-evaluate under relaxed tolerances.
func (c *Controller) emergencyRecovery(ctx context.Context) {
	logger := logging.GetLogger()
	logger.Warn(ctx, "Population collapse: zero valid candidates, entering emergency recovery (archive=%d)", c.hof.Len())

	c.emergency = true
	c.expandSigma()

	cfg := c.mutationConfig()
	cfg.Rate = 1.0
	cfg.SigmaKinetic *= 4
	cfg.SigmaShape *= 4
	cfg.SigmaCoupling *= 4

	for i := range c.population {
		if seed, ok := c.hof.Sample(c.rng); ok && i%4 != 0 {
			genome.Mutate(c.rng, &seed, cfg, genome.Guidance{}, c.locked)
			c.population[i] = seed
		} else {
			c.population[i] = genome.Random(c.rng)
			if c.locked {
				c.population[i].ApplyLock()
			}
		}
	}
}

// updatePhase performs the one-directional exploration -> precision switch.
func (c *Controller) updatePhase(ctx context.Context, best fitness.Candidate) {
	if c.phase != PhaseExploration || best.DigitsC() < 6 {
		return
	}

	c.phase = PhasePrecision
	c.params.applyPrecisionPreset()
	logging.GetLogger().Info(ctx, "Phase switch: exploration -> precision (digits_c=%d)", best.DigitsC())
}

// maybeActivateLock auto-activates the locked regime once both coupling
// observables are precise enough. One-directional unless toggled externally.
func (c *Controller) maybeActivateLock(ctx context.Context, best fitness.Candidate) {
	if c.locked || !c.params.LockedMode {
		return
	}
	if best.DigitsAlpha() < lockedModeDigits || best.DigitsG() < lockedModeDigits {
		return
	}

	c.locked = true
	logging.GetLogger().Info(ctx, "Locked mode activated: digits_alpha=%d, digits_g=%d",
		best.DigitsAlpha(), best.DigitsG())
}

// inPrecisionRegime reports whether the run has reached the precision regime
// that changes selection and diversity behavior.
func (c *Controller) inPrecisionRegime() bool {
	return c.best != nil &&
		c.best.DeltaC < precisionRegimeEpsC &&
		c.best.DeltaG < precisionRegimeEpsG
}

// guidance derives the mutation hint from the current best candidate.
func (c *Controller) guidance() genome.Guidance {
	if c.best == nil {
		return genome.Guidance{}
	}
	return genome.Guidance{
		AlphaErr: (c.best.AlphaModel - physics.AlphaTarget) / physics.AlphaTarget,
		GErr:     (c.best.GModel - physics.GTarget) / physics.GTarget,
		Phi0:     c.best.Phi0,
		Valid:    true,
	}
}

func (c *Controller) mutationConfig() genome.MutationConfig {
	return genome.MutationConfig{
		Rate:          c.params.MutationRate,
		SigmaKinetic:  c.params.SigmaKinetic,
		SigmaShape:    c.params.SigmaShape,
		SigmaCoupling: c.params.SigmaCoupling,
	}
}

// maybeCheckpoint hands the best candidate to the persistence collaborator on
// the configured wall-clock interval. Fire-and-forget: failures are logged,
// never propagated.
func (c *Controller) maybeCheckpoint(ctx context.Context) {
	if c.checkpointer == nil || c.checkpointEvery <= 0 || c.best == nil {
		return
	}
	if time.Since(c.lastCheckpoint) < c.checkpointEvery {
		return
	}
	c.lastCheckpoint = time.Now()

	cp := c.checkpointer
	runID := c.runID
	generation := c.generation
	best := *c.best

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.GetLogger().Error(ctx, "Checkpointer panicked: %v", r)
			}
		}()
		if err := cp.SaveBest(ctx, runID, generation, best); err != nil {
			logging.GetLogger().Warn(ctx, "Checkpoint failed (run continues): %v", err)
		}
	}()
}

// snapshotUpdate builds the outward snapshot. Caller holds c.mu.
func (c *Controller) snapshotUpdate(evalsPerSec float64) Update {
	update := Update{
		RunID:          c.runID,
		Generation:     c.generation,
		TopK:           append([]fitness.Candidate(nil), c.topK...),
		EvalsPerSecond: evalsPerSec,
		Status:         c.status,
		Phase:          c.phase,
		Locked:         c.locked,
		Emergency:      c.emergency,
	}
	if c.best != nil {
		best := *c.best
		update.Best = &best
		update.DigitsC = best.DigitsC()
		update.DigitsAlpha = best.DigitsAlpha()
		update.DigitsG = best.DigitsG()
	}
	return update
}

// emit performs a non-blocking send on the update stream.
func (c *Controller) emit(update Update) {
	select {
	case c.updates <- update:
	default:
	}
}

func throughput(evals int, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(evals) / secs
}
