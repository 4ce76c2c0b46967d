package evolution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
)

// knockoutEvaluator rejects every individual, simulating a search space where
// no candidate ever passes the constraint gate.
type knockoutEvaluator struct{}

func (knockoutEvaluator) Evaluate(ch genome.Chromosome, generation int, recovery, locked bool) fitness.Candidate {
	return fitness.Candidate{Genes: ch, Fitness: fitness.KnockoutFitness, Generation: generation}
}

// recordingCheckpointer counts SaveBest calls and optionally fails them.
type recordingCheckpointer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingCheckpointer) SaveBest(ctx context.Context, runID string, generation int, cand fitness.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *recordingCheckpointer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func smallRunParams() Params {
	p := DefaultParams()
	p.PopulationSize = 50
	p.EliteCount = 5
	p.Workers = 4
	p.MaxGenerations = 20
	p.Seed = 42
	return p
}

func waitForTerminal(t *testing.T, c *Controller, want RunStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Status().Status == want
	}, 30*time.Second, 10*time.Millisecond)
}

func TestControllerInitiallyIdle(t *testing.T) {
	c := NewController()
	st := c.Status()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.Best)
}

func TestControllerStopWhenIdleFails(t *testing.T) {
	c := NewController()
	assert.Error(t, c.Stop())
}

func TestControllerStartWhileRunningFails(t *testing.T) {
	c := NewController()
	params := smallRunParams()
	params.MaxGenerations = 10_000_000

	require.NoError(t, c.Start(context.Background(), params))
	err := c.Start(context.Background(), params)
	require.Error(t, err)

	require.NoError(t, c.Stop())
	assert.Equal(t, StatusStopped, c.Status().Status)
}

func TestControllerStopFinishesInFlightGeneration(t *testing.T) {
	c := NewController()
	params := smallRunParams()
	params.MaxGenerations = 10_000_000

	require.NoError(t, c.Start(context.Background(), params))
	require.NoError(t, c.Stop())

	st := c.Status()
	assert.Equal(t, StatusStopped, st.Status)

	// A second start after stopping must be accepted.
	params.MaxGenerations = 2
	require.NoError(t, c.Start(context.Background(), params))
	waitForTerminal(t, c, StatusCompleted)
}

// A full run against a deliberately unreachable target tolerance must still
// terminate at the generation cap with a valid best candidate: the warmup gate
// is relaxed, so early generations always produce survivors.
func TestControllerCompletesAtCapWithImpossibleTolerance(t *testing.T) {
	c := NewController()
	params := smallRunParams()
	params.StrictEpsC = 1e-15
	params.StrictEpsG = 1e-15

	require.NoError(t, c.Start(context.Background(), params))
	waitForTerminal(t, c, StatusCompleted)

	st := c.Status()
	assert.Equal(t, params.MaxGenerations, st.Generation)
	require.NotNil(t, st.Best)
	assert.True(t, st.Best.Valid())
	assert.True(t, st.Best.Genes.IsFinite())
}

// When every individual in every generation is knocked out, the controller
// must keep cycling through emergency recovery instead of panicking, and still
// complete at the cap with no best candidate.
func TestControllerEmergencyRecoveryLiveness(t *testing.T) {
	c := NewController()
	c.evaluatorFactory = func(fitness.GateSchedule) Evaluator { return knockoutEvaluator{} }

	params := smallRunParams()
	params.PopulationSize = 20
	params.MaxGenerations = 5

	require.NoError(t, c.Start(context.Background(), params))
	waitForTerminal(t, c, StatusCompleted)

	st := c.Status()
	assert.Nil(t, st.Best)

	sawEmergency := false
	for {
		select {
		case u := <-c.Updates():
			if u.Emergency {
				sawEmergency = true
			}
		default:
			assert.True(t, sawEmergency, "collapse generations must report emergency mode")
			return
		}
	}
}

func TestControllerUpdateStream(t *testing.T) {
	c := NewController()
	params := smallRunParams()
	params.MaxGenerations = 5

	require.NoError(t, c.Start(context.Background(), params))
	waitForTerminal(t, c, StatusCompleted)

	runID := c.Status().RunID
	require.NotEmpty(t, runID)

	lastGen := -1
	count := 0
	for {
		select {
		case u := <-c.Updates():
			assert.Equal(t, runID, u.RunID)
			assert.GreaterOrEqual(t, u.Generation, lastGen)
			lastGen = u.Generation
			count++
		default:
			assert.Positive(t, count, "a finished run must have emitted updates")
			return
		}
	}
}

func TestControllerContextCancellationStopsRun(t *testing.T) {
	c := NewController()
	params := smallRunParams()
	params.MaxGenerations = 10_000_000

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, params))
	cancel()

	waitForTerminal(t, c, StatusStopped)
}

func TestControllerCheckpointing(t *testing.T) {
	cp := &recordingCheckpointer{}

	c := NewController()
	c.SetCheckpointer(cp, time.Nanosecond)

	require.NoError(t, c.Start(context.Background(), smallRunParams()))
	waitForTerminal(t, c, StatusCompleted)

	assert.Eventually(t, func() bool {
		return cp.count() > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestControllerCheckpointFailureDoesNotAbortRun(t *testing.T) {
	cp := &recordingCheckpointer{err: assert.AnError}

	c := NewController()
	c.SetCheckpointer(cp, time.Nanosecond)

	require.NoError(t, c.Start(context.Background(), smallRunParams()))
	waitForTerminal(t, c, StatusCompleted)
}

func TestControllerSetLockedMode(t *testing.T) {
	c := NewController()
	c.SetLockedMode(true)
	assert.True(t, c.locked)

	c.SetLockedMode(false)
	assert.False(t, c.locked)
}
