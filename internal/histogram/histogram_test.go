package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRejectsFewerThanThreeBins(t *testing.T) {
	cfg := Config{Min: 0, Max: 10, BinWidth: 5, NumBins: 2}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestConfigValidateRejectsInvertedRange(t *testing.T) {
	cfg := Config{Min: 10, Max: 5, BinWidth: 1, NumBins: 4}
	require.Error(t, cfg.Validate())
}

func TestConfigBucketBoundaries(t *testing.T) {
	cfg := Config{Min: 0, Max: 10, BinWidth: 5, NumBins: 4}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.Bucket(-1), "below min falls in the floor bucket")
	assert.Equal(t, 1, cfg.Bucket(0))
	assert.Equal(t, 1, cfg.Bucket(4))
	assert.Equal(t, 2, cfg.Bucket(5))
	assert.Equal(t, 2, cfg.Bucket(9))
	assert.Equal(t, 3, cfg.Bucket(10), "at or above max falls in the ceiling bucket")
	assert.Equal(t, 3, cfg.Bucket(100))
}

func TestResolverFirstMatchWins(t *testing.T) {
	resolver, err := NewResolver([]Pattern{
		{Match: "timers.api.*", Config: Config{Min: 0, Max: 100, BinWidth: 10, NumBins: 12}},
		{Match: "timers.*", Config: Config{Min: 0, Max: 10, BinWidth: 1, NumBins: 12}},
	})
	require.NoError(t, err)

	cfg, ok := resolver.Resolve("timers.api.latency")
	require.True(t, ok)
	assert.Equal(t, 100.0, cfg.Max, "the earlier, more specific pattern must win over the later catch-all")

	cfg, ok = resolver.Resolve("timers.db.latency")
	require.True(t, ok)
	assert.Equal(t, 10.0, cfg.Max)

	_, ok = resolver.Resolve("counters.requests")
	assert.False(t, ok)
}

func TestResolverRejectsInvalidGlob(t *testing.T) {
	_, err := NewResolver([]Pattern{
		{Match: "[", Config: Config{Min: 0, Max: 10, BinWidth: 1, NumBins: 3}},
	})
	require.Error(t, err)
}

func TestResolverRejectsInvalidConfigAtLoadTime(t *testing.T) {
	_, err := NewResolver([]Pattern{
		{Match: "*", Config: Config{Min: 0, Max: 10, BinWidth: 1, NumBins: 2}},
	})
	require.Error(t, err)
}

func TestNilResolverResolvesNothing(t *testing.T) {
	var r *Resolver
	_, ok := r.Resolve("anything")
	assert.False(t, ok)
}
