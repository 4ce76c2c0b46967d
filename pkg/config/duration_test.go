package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationDecodesStrings(t *testing.T) {
	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte("1m30s"), &d))
	assert.Equal(t, 90*time.Second, d.Std())
}

func TestDurationDecodesNanoseconds(t *testing.T) {
	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte("5000000000"), &d))
	assert.Equal(t, 5*time.Second, d.Std())
}

func TestDurationRejectsGarbage(t *testing.T) {
	var d Duration
	require.Error(t, yaml.Unmarshal([]byte("\"soon\""), &d))
}

func TestDurationRoundTrips(t *testing.T) {
	out, err := yaml.Marshal(Duration(45 * time.Second))
	require.NoError(t, err)

	var d Duration
	require.NoError(t, yaml.Unmarshal(out, &d))
	assert.Equal(t, 45*time.Second, d.Std())
}
