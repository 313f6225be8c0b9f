// Package serialize walks a retired, frozen registry and writes one record
// per derived statistic to a byte sink, in either text or binary format
// (spec §4.6).
package serialize

import (
	"fmt"
	"io"

	"github.com/metricsd/metricsd/internal/aggregate"
)

// Text implements flush.Serializer in the `|`-separated text format.
type Text struct{}

func (Text) Serialize(reg *aggregate.Registry, rotatedAt int64, w io.Writer) error {
	enc := &textEncoder{w: w, ts: rotatedAt}
	reg.Iterate(func(e aggregate.Entry) {
		if enc.err != nil {
			return
		}
		enc.encode(e)
	})
	return enc.err
}

type textEncoder struct {
	w   io.Writer
	ts  int64
	err error
}

func (e *textEncoder) writeln(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, err := fmt.Fprintf(e.w, format+"\n", args...)
	if err != nil {
		e.err = err
	}
}

func (e *textEncoder) encode(entry aggregate.Entry) {
	name := entry.Name
	switch acc := entry.Acc.(type) {
	case *aggregate.KeyValAcc:
		e.writeln("%s|%.6f|%d", name, acc.Value(), e.ts)

	case *aggregate.GaugeAcc:
		e.writeln("%s|%.6f|%d", name, acc.Value(), e.ts)

	case *aggregate.CounterAcc:
		e.writeln("%s|%.6f|%d", name, acc.Sum, e.ts)

	case *aggregate.SetAcc:
		e.writeln("%s|%d|%d", name, acc.Cardinality(), e.ts)

	case *aggregate.TimerAcc:
		e.encodeTimer(name, acc)
	}
}

func (e *textEncoder) encodeTimer(name string, acc *aggregate.TimerAcc) {
	prefix := "timers." + name
	e.writeln("%s.sum|%.6f|%d", prefix, acc.Sum, e.ts)
	e.writeln("%s.sum_sq|%.6f|%d", prefix, acc.SumSq, e.ts)
	e.writeln("%s.mean|%.6f|%d", prefix, acc.Mean(), e.ts)
	e.writeln("%s.lower|%.6f|%d", prefix, acc.Min, e.ts)
	e.writeln("%s.upper|%.6f|%d", prefix, acc.Max, e.ts)
	e.writeln("%s.count|%d|%d", prefix, acc.Count, e.ts)
	e.writeln("%s.stdev|%.6f|%d", prefix, acc.StdDev(), e.ts)
	e.writeln("%s.median|%.6f|%d", prefix, acc.Quantile(0.5), e.ts)
	e.writeln("%s.upper_90|%.6f|%d", prefix, acc.Quantile(0.9), e.ts)
	e.writeln("%s.upper_95|%.6f|%d", prefix, acc.Quantile(0.95), e.ts)
	e.writeln("%s.upper_99|%.6f|%d", prefix, acc.Quantile(0.99), e.ts)

	cfg, bins, ok := acc.Histogram()
	if !ok {
		return
	}
	e.writeln("%s.histogram.bin_<%.2f|%d|%d", name, cfg.Min, bins[0], e.ts)
	for i := 0; i < cfg.LinearBins(); i++ {
		edge := cfg.Min + float64(i)*cfg.BinWidth
		e.writeln("%s.histogram.bin_%.2f|%d|%d", name, edge, bins[1+i], e.ts)
	}
	e.writeln("%s.histogram.bin_>%.2f|%d|%d", name, cfg.Max, bins[cfg.NumBins-1], e.ts)
}
