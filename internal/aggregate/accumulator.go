// Package aggregate implements the current-epoch metrics table: per-metric
// typed accumulators folding a stream of wire.Sample values into summary
// statistics (spec §3, §4.4).
package aggregate

import (
	"math"

	"github.com/metricsd/metricsd/internal/cardinality"
	"github.com/metricsd/metricsd/internal/histogram"
	"github.com/metricsd/metricsd/internal/quantile"
	"github.com/metricsd/metricsd/internal/wire"
)

// Accumulator is the tagged-variant contract every per-metric accumulator
// satisfies; Type fixes which concrete struct a name resolves to.
type Accumulator interface {
	Type() wire.MetricType
}

// moments is the running sum/sum-of-squares/count/min/max shared by
// CounterAcc and the non-sketch side of TimerAcc.
type moments struct {
	Sum, SumSq   float64
	Count        uint64
	Min, Max     float64
	everObserved bool
}

func (m *moments) add(v float64) {
	m.Sum += v
	m.SumSq += v * v
	m.Count++
	if !m.everObserved {
		m.Min, m.Max = v, v
		m.everObserved = true
		return
	}
	if v < m.Min {
		m.Min = v
	}
	if v > m.Max {
		m.Max = v
	}
}

func (m *moments) mean() float64 {
	if m.Count == 0 {
		return 0
	}
	return m.Sum / float64(m.Count)
}

// stddev returns the population standard deviation. If count == 0 the
// quantile/derived-value rule of spec §4.6 applies: define it as 0 rather
// than dividing by zero.
func (m *moments) stddev() float64 {
	if m.Count == 0 {
		return 0
	}
	mean := m.mean()
	variance := m.SumSq/float64(m.Count) - mean*mean
	if variance < 0 {
		// Floating point rounding can push this fractionally negative
		// for near-zero-variance series.
		variance = 0
	}
	return math.Sqrt(variance)
}

// CounterAcc accumulates Counter samples: sum, sum-of-squares, count,
// min/max, with mean and stddev derived from the moments.
type CounterAcc struct{ moments }

func (a *CounterAcc) Type() wire.MetricType { return wire.Counter }

// Add folds one already sample-rate-adjusted counter value in.
func (a *CounterAcc) Add(v float64) { a.moments.add(v) }

func (a *CounterAcc) Mean() float64   { return a.mean() }
func (a *CounterAcc) StdDev() float64 { return a.stddev() }

// TimerAcc accumulates Timer samples: the same moments as a counter, a
// streaming quantile sketch, and an optional fixed-grid histogram.
type TimerAcc struct {
	moments
	sketch quantile.Sketch

	histCfg  histogram.Config
	hasHist  bool
	histBins []uint64
}

func newTimerAcc(sketch quantile.Sketch, histCfg histogram.Config, hasHist bool) *TimerAcc {
	t := &TimerAcc{sketch: sketch, histCfg: histCfg, hasHist: hasHist}
	if hasHist {
		t.histBins = make([]uint64, histCfg.NumBins)
	}
	return t
}

func (a *TimerAcc) Type() wire.MetricType { return wire.Timer }

func (a *TimerAcc) Add(v float64) {
	a.moments.add(v)
	a.sketch.Add(v)
	if a.hasHist {
		a.histBins[a.histCfg.Bucket(v)]++
	}
}

func (a *TimerAcc) Mean() float64   { return a.mean() }
func (a *TimerAcc) StdDev() float64 { return a.stddev() }

// Quantile returns the q-th quantile (q in [0,1]); 0 if no samples have
// been observed, per the "must not divide by zero" rule of spec §4.6.
func (a *TimerAcc) Quantile(q float64) float64 {
	if a.Count == 0 {
		return 0
	}
	return a.sketch.Quantile(q)
}

// Histogram returns the per-bin counts and whether a histogram is
// configured for this metric at all.
func (a *TimerAcc) Histogram() (cfg histogram.Config, bins []uint64, ok bool) {
	return a.histCfg, a.histBins, a.hasHist
}

// GaugeAcc holds a single absolute or delta-accumulated value.
type GaugeAcc struct {
	value   float64
	present bool
}

func (a *GaugeAcc) Type() wire.MetricType { return wire.Gauge }

// Set replaces the gauge's value (absolute Gauge sample).
func (a *GaugeAcc) Set(v float64) {
	a.value = v
	a.present = true
}

// AddDelta applies a GaugeDelta sample, starting from 0 if the gauge has
// never been set.
func (a *GaugeAcc) AddDelta(v float64) {
	a.value += v
	a.present = true
}

func (a *GaugeAcc) Value() float64 { return a.value }

// SetAcc accumulates Set samples behind a cardinality estimator.
type SetAcc struct {
	estimator cardinality.Estimator
}

func newSetAcc(e cardinality.Estimator) *SetAcc { return &SetAcc{estimator: e} }

func (a *SetAcc) Type() wire.MetricType { return wire.Set }

func (a *SetAcc) AddMember(member string) { a.estimator.Add(member) }

func (a *SetAcc) Cardinality() uint64 { return a.estimator.Estimate() }

// KeyValAcc holds the most recently observed value for the metric.
//
// Spec §9(c) leaves replace-vs-append ambiguous; this implementation
// replaces, because the serializer's own contract (§4.6: "KeyVal |
// N|value|ts", a single scalar per flush) never walks a history, so
// retaining one beyond the latest would be observable nowhere.
type KeyValAcc struct {
	value float64
}

func (a *KeyValAcc) Type() wire.MetricType { return wire.KeyVal }

func (a *KeyValAcc) Set(v float64) { a.value = v }

func (a *KeyValAcc) Value() float64 { return a.value }
