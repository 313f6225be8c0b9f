package serialize

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/metricsd/metricsd/internal/aggregate"
	"github.com/metricsd/metricsd/internal/wire"
)

// value_type byte codes, per spec §4.6.
const (
	vtNone    byte = 0x00
	vtSum     byte = 0x01
	vtSumSq   byte = 0x02
	vtMean    byte = 0x03
	vtCount   byte = 0x04
	vtStdDev  byte = 0x05
	vtMin     byte = 0x06
	vtMax     byte = 0x07
	vtHistLo  byte = 0x08
	vtHistBin byte = 0x09
	vtHistHi  byte = 0x0A

	vtPercentileBase byte = 0x80
)

func vtPercentile(p int) byte { return vtPercentileBase | byte(p) }

// Binary implements flush.Serializer in the packed little-endian format.
type Binary struct{}

func (Binary) Serialize(reg *aggregate.Registry, rotatedAt int64, w io.Writer) error {
	enc := &binaryEncoder{w: w, ts: uint64(rotatedAt)}
	reg.Iterate(func(e aggregate.Entry) {
		if enc.err != nil {
			return
		}
		enc.encode(e)
	})
	return enc.err
}

type binaryEncoder struct {
	w   io.Writer
	ts  uint64
	err error
}

// record writes one record: the 20-byte prefix, the NUL-terminated name,
// and (when withCount is true) a trailing u32 bucket count.
func (e *binaryEncoder) record(mtype byte, valueType byte, name string, value float64, withCount bool, count uint32) {
	if e.err != nil {
		return
	}
	keyBytes := append([]byte(name), 0)
	buf := make([]byte, 0, 20+len(keyBytes)+4)

	var prefix [20]byte
	binary.LittleEndian.PutUint64(prefix[0:8], e.ts)
	prefix[8] = mtype
	prefix[9] = valueType
	binary.LittleEndian.PutUint16(prefix[10:12], uint16(len(keyBytes)))
	binary.LittleEndian.PutUint64(prefix[12:20], math.Float64bits(value))

	buf = append(buf, prefix[:]...)
	buf = append(buf, keyBytes...)
	if withCount {
		var c [4]byte
		binary.LittleEndian.PutUint32(c[:], count)
		buf = append(buf, c[:]...)
	}
	if _, err := e.w.Write(buf); err != nil {
		e.err = err
	}
}

func (e *binaryEncoder) encode(entry aggregate.Entry) {
	name := entry.Name
	switch acc := entry.Acc.(type) {
	case *aggregate.KeyValAcc:
		e.record(wire.CodeForType(wire.KeyVal), vtNone, name, acc.Value(), false, 0)

	case *aggregate.GaugeAcc:
		e.record(wire.CodeForType(wire.Gauge), vtNone, name, acc.Value(), false, 0)

	case *aggregate.CounterAcc:
		t := wire.CodeForType(wire.Counter)
		e.record(t, vtSum, name, acc.Sum, false, 0)
		e.record(t, vtSumSq, name, acc.SumSq, false, 0)
		e.record(t, vtMean, name, acc.Mean(), false, 0)
		e.record(t, vtCount, name, float64(acc.Count), false, 0)
		e.record(t, vtStdDev, name, acc.StdDev(), false, 0)
		e.record(t, vtMin, name, acc.Min, false, 0)
		e.record(t, vtMax, name, acc.Max, false, 0)

	case *aggregate.SetAcc:
		e.record(wire.CodeForType(wire.Set), vtSum, name, float64(acc.Cardinality()), false, 0)

	case *aggregate.TimerAcc:
		e.encodeTimer(name, acc)
	}
}

func (e *binaryEncoder) encodeTimer(name string, acc *aggregate.TimerAcc) {
	t := wire.CodeForType(wire.Timer)
	e.record(t, vtSum, name, acc.Sum, false, 0)
	e.record(t, vtSumSq, name, acc.SumSq, false, 0)
	e.record(t, vtMean, name, acc.Mean(), false, 0)
	e.record(t, vtCount, name, float64(acc.Count), false, 0)
	e.record(t, vtStdDev, name, acc.StdDev(), false, 0)
	e.record(t, vtMin, name, acc.Min, false, 0)
	e.record(t, vtMax, name, acc.Max, false, 0)

	for _, p := range []int{50, 90, 95, 99} {
		e.record(t, vtPercentile(p), name, acc.Quantile(float64(p)/100), false, 0)
	}

	cfg, bins, ok := acc.Histogram()
	if !ok {
		return
	}
	e.record(t, vtHistLo, name, cfg.Min, true, uint32(bins[0]))
	for i := 0; i < cfg.LinearBins(); i++ {
		edge := cfg.Min + float64(i)*cfg.BinWidth
		e.record(t, vtHistBin, name, edge, true, uint32(bins[1+i]))
	}
	e.record(t, vtHistHi, name, cfg.Max, true, uint32(bins[cfg.NumBins-1]))
}
