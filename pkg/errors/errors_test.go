package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndCode(t *testing.T) {
	err := New(RunAlreadyActive, "search already running")
	require.Error(t, err)

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, RunAlreadyActive, e.Code())
	assert.Equal(t, "search already running", e.Error())
}

func TestWrapPreservesOriginal(t *testing.T) {
	base := stderrors.New("disk full")
	err := Wrap(base, PersistenceFailed, "checkpoint write failed")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "checkpoint write failed")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, base, stderrors.Unwrap(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, Unknown, "whatever"))
	assert.NoError(t, WithFields(nil, Fields{"generation": 3}))
}

func TestWithFields(t *testing.T) {
	err := New(PopulationCollapsed, "no valid candidates")
	err = WithFields(err, Fields{"generation": 42, "population": 800})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, PopulationCollapsed, e.Code())
	assert.Equal(t, 42, e.Fields()["generation"])
	assert.Equal(t, 800, e.Fields()["population"])
}

func TestWithFieldsOnForeignError(t *testing.T) {
	err := WithFields(stderrors.New("plain"), Fields{"k": "v"})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, Unknown, e.Code())
	assert.Equal(t, "v", e.Fields()["k"])
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(RunNotActive, "nothing to stop")
	assert.True(t, stderrors.Is(err, New(RunNotActive, "other message")))
	assert.False(t, stderrors.Is(err, New(Canceled, "other code")))
}

func TestCheckContext(t *testing.T) {
	assert.NoError(t, CheckContext(context.Background(), "evolve"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CheckContext(ctx, "evolve")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, New(Canceled, "")))
}
