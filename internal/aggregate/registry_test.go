package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricsd/metricsd/internal/cardinality"
	"github.com/metricsd/metricsd/internal/histogram"
	"github.com/metricsd/metricsd/internal/quantile"
	"github.com/metricsd/metricsd/internal/wire"
)

func testFactory() *Factory {
	return &Factory{
		TimerEps:     0.01,
		SetPrecision: 14,
		NewSketch:    func(eps float64) quantile.Sketch { return &stubSketch{} },
		NewCardinality: func(precision uint8) cardinality.Estimator {
			return &stubEstimator{}
		},
	}
}

func TestRegistryCounterAdditivityWithSampleRate(t *testing.T) {
	reg := NewRegistry(testFactory())
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 1})
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 2})
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 6}) // 3 / 0.5, pre-divided by the wire layer

	var got *CounterAcc
	reg.Iterate(func(e Entry) {
		if e.Name == "a" {
			got = e.Acc.(*CounterAcc)
		}
	})
	require.NotNil(t, got)
	assert.Equal(t, 9.0, got.Sum)
	assert.Equal(t, uint64(3), got.Count)
}

func TestRegistryTypeConflictIsIgnored(t *testing.T) {
	reg := NewRegistry(testFactory())
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 1})
	reg.Add(wire.Sample{Type: wire.Gauge, Name: "a", Value: 99})

	var sawGauge bool
	reg.Iterate(func(e Entry) {
		if e.Name == "a" && e.Acc.Type() == wire.Gauge {
			sawGauge = true
		}
	})
	assert.False(t, sawGauge, "a conflicting-type sample must not overwrite the existing accumulator")
}

func TestRegistryGaugeDeltaSharesGaugeSlot(t *testing.T) {
	reg := NewRegistry(testFactory())
	reg.Add(wire.Sample{Type: wire.Gauge, Name: "x", Value: 5})
	reg.Add(wire.Sample{Type: wire.GaugeDelta, Value: -2, Name: "x"})

	var got *GaugeAcc
	reg.Iterate(func(e Entry) {
		if e.Name == "x" {
			got = e.Acc.(*GaugeAcc)
		}
	})
	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.Value())
}

func TestRegistryFreezeStopsAccepting(t *testing.T) {
	reg := NewRegistry(testFactory())
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 1})
	reg.Freeze()
	reg.Add(wire.Sample{Type: wire.Counter, Name: "a", Value: 100})

	var got *CounterAcc
	reg.Iterate(func(e Entry) {
		if e.Name == "a" {
			got = e.Acc.(*CounterAcc)
		}
	})
	require.NotNil(t, got)
	assert.Equal(t, 1.0, got.Sum, "samples added after Freeze must not be folded in")
}

func TestRegistryTimerUsesHistogramResolver(t *testing.T) {
	patterns := []histogram.Pattern{
		{Match: "a", Config: histogram.Config{Min: 0, Max: 10, BinWidth: 5, NumBins: 4}},
	}
	resolver, err := histogram.NewResolver(patterns)
	require.NoError(t, err)

	factory := testFactory()
	factory.Histograms = resolver

	reg := NewRegistry(factory)
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 1})
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 6})
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 15})

	var got *TimerAcc
	reg.Iterate(func(e Entry) {
		if e.Name == "a" {
			got = e.Acc.(*TimerAcc)
		}
	})
	require.NotNil(t, got)
	_, bins, ok := got.Histogram()
	require.True(t, ok)
	assert.Equal(t, []uint64{0, 1, 1, 1}, bins)
}

func TestRegistrySetCardinality(t *testing.T) {
	reg := NewRegistry(testFactory())
	for i := 0; i < 3; i++ {
		reg.Add(wire.Sample{Type: wire.Set, Name: "u", SetMember: "alice"})
	}
	reg.Add(wire.Sample{Type: wire.Set, Name: "u", SetMember: "bob"})

	var got *SetAcc
	reg.Iterate(func(e Entry) {
		if e.Name == "u" {
			got = e.Acc.(*SetAcc)
		}
	})
	require.NotNil(t, got)
	assert.Equal(t, uint64(2), got.Cardinality())
}

func TestRegistryEmptyRotation(t *testing.T) {
	reg := NewRegistry(testFactory())
	reg.Freeze()
	count := 0
	reg.Iterate(func(Entry) { count++ })
	assert.Equal(t, 0, count)
}
