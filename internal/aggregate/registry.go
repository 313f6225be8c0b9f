package aggregate

import (
	"sync"
	"time"

	"github.com/metricsd/metricsd/internal/cardinality"
	"github.com/metricsd/metricsd/internal/histogram"
	"github.com/metricsd/metricsd/internal/quantile"
	"github.com/metricsd/metricsd/internal/wire"
)

// Entry pairs a name with its accumulator, as visited by Iterate.
type Entry struct {
	Name string
	Acc  Accumulator
}

// Factory builds fresh sketches/estimators/histograms for a newly-seen
// metric name. One Factory (and the Config it closes over) is shared by
// every registry born from the same Daemon, per spec §3's "HistogramConfig
// ... is constant for the process lifetime."
type Factory struct {
	TimerEps       float64
	SetPrecision   uint8
	Histograms     *histogram.Resolver
	NewSketch      func(eps float64) quantile.Sketch
	NewCardinality func(precision uint8) cardinality.Estimator
}

func (f *Factory) newSketch() quantile.Sketch {
	if f.NewSketch != nil {
		return f.NewSketch(f.TimerEps)
	}
	return quantile.NewTDigest(f.TimerEps)
}

func (f *Factory) newEstimator() cardinality.Estimator {
	if f.NewCardinality != nil {
		return f.NewCardinality(f.SetPrecision)
	}
	return cardinality.NewHLL(f.SetPrecision)
}

// Registry is the mapping from metric name to typed accumulator for one
// epoch. All accumulators in a registry share a single creation timestamp,
// the start of the epoch.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Accumulator
	factory *Factory
	created time.Time
	rotated bool
}

// NewRegistry builds an empty registry for a new epoch.
func NewRegistry(factory *Factory) *Registry {
	return &Registry{
		entries: make(map[string]Accumulator),
		factory: factory,
		created: time.Now(),
	}
}

// CreatedAt returns the epoch's start time.
func (r *Registry) CreatedAt() time.Time { return r.created }

// Add folds one sample into the registry (spec §4.4's add_sample /
// set_update, unified since the wire layer already distinguishes Set
// samples by carrying SetMember instead of Value).
//
// If name already exists bound to a different type, the sample is
// silently ignored — spec §9(a) leaves this open between reject and
// ignore; ignoring preserves the invariant that a name's type, once fixed,
// never changes, without tearing down a connection over a single
// colliding metric name the way a framing error would.
func (r *Registry) Add(s wire.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rotated {
		return
	}

	switch s.Type {
	case wire.Counter:
		raw, ok := r.getOrCreate(s.Name, wire.Counter, func() Accumulator { return &CounterAcc{} })
		if !ok {
			return
		}
		raw.(*CounterAcc).Add(s.Value)

	case wire.Timer:
		raw, ok := r.getOrCreate(s.Name, wire.Timer, func() Accumulator {
			cfg, hasHist := histogram.Config{}, false
			if r.factory.Histograms != nil {
				cfg, hasHist = r.factory.Histograms.Resolve(s.Name)
			}
			return newTimerAcc(r.factory.newSketch(), cfg, hasHist)
		})
		if !ok {
			return
		}
		raw.(*TimerAcc).Add(s.Value)

	case wire.Gauge:
		raw, ok := r.getOrCreate(s.Name, wire.Gauge, func() Accumulator { return &GaugeAcc{} })
		if !ok {
			return
		}
		raw.(*GaugeAcc).Set(s.Value)

	case wire.GaugeDelta:
		// A GaugeDelta sample targets the same slot a Gauge sample
		// would: both are "GaugeAcc" as far as the registry's type
		// bookkeeping is concerned, only the mutation differs.
		raw, ok := r.getOrCreate(s.Name, wire.Gauge, func() Accumulator { return &GaugeAcc{} })
		if !ok {
			return
		}
		raw.(*GaugeAcc).AddDelta(s.Value)

	case wire.Set:
		raw, ok := r.getOrCreate(s.Name, wire.Set, func() Accumulator { return newSetAcc(r.factory.newEstimator()) })
		if !ok {
			return
		}
		raw.(*SetAcc).AddMember(s.SetMember)

	case wire.KeyVal:
		raw, ok := r.getOrCreate(s.Name, wire.KeyVal, func() Accumulator { return &KeyValAcc{} })
		if !ok {
			return
		}
		raw.(*KeyValAcc).Set(s.Value)
	}
}

// getOrCreate returns the existing accumulator for name if its type
// matches wantType, or creates one via newAcc if name is unseen. ok is
// false on a type conflict (name already bound to a different type), in
// which case the caller must not use the returned Accumulator. Caller
// holds r.mu.
func (r *Registry) getOrCreate(name string, wantType wire.MetricType, newAcc func() Accumulator) (Accumulator, bool) {
	if existing, ok := r.entries[name]; ok {
		if existing.Type() != wantType {
			return nil, false
		}
		return existing, true
	}
	acc := newAcc()
	r.entries[name] = acc
	return acc, true
}

// Iterate visits every (name, accumulator) pair in unspecified order. Only
// valid after rotation, per spec §4.4's invariant.
func (r *Registry) Iterate(visit func(Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, acc := range r.entries {
		visit(Entry{Name: name, Acc: acc})
	}
}

// Freeze marks the registry immutable: subsequent Add calls become no-ops.
// Called by the flush controller at the rotation point.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.rotated = true
	r.mu.Unlock()
}

// Destroy releases all accumulators.
func (r *Registry) Destroy() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
