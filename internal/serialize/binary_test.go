package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricsd/metricsd/internal/aggregate"
	"github.com/metricsd/metricsd/internal/wire"
)

// TestBinarySerializeS3Gauge is scenario S3: a single gauge record must
// round-trip with type=5, value_type=0, key="g", value=42.0.
func TestBinarySerializeS3Gauge(t *testing.T) {
	reg := aggregate.NewRegistry(testFactory(t, nil))
	reg.Add(wire.Sample{Type: wire.Gauge, Name: "g", Value: 42.0})
	reg.Freeze()

	var buf bytes.Buffer
	require.NoError(t, Binary{}.Serialize(reg, 1, &buf))

	rec, n, err := DecodeRecord(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, wire.CodeForType(wire.Gauge), rec.Type)
	assert.Equal(t, vtNone, rec.ValueType)
	assert.Equal(t, "g", rec.Key)
	assert.Equal(t, 42.0, rec.Value)
	assert.Equal(t, n, buf.Len())
}

// TestBinarySerializeS4Set is scenario S4: cardinality record reports 2.
func TestBinarySerializeS4Set(t *testing.T) {
	reg := aggregate.NewRegistry(testFactory(t, nil))
	for i := 0; i < 3; i++ {
		reg.Add(wire.Sample{Type: wire.Set, Name: "u", SetMember: "alice"})
	}
	reg.Add(wire.Sample{Type: wire.Set, Name: "u", SetMember: "bob"})
	reg.Freeze()

	var buf bytes.Buffer
	require.NoError(t, Binary{}.Serialize(reg, 1, &buf))

	rec, _, err := DecodeRecord(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, wire.CodeForType(wire.Set), rec.Type)
	assert.Equal(t, 2.0, rec.Value)
}

// TestBinaryRoundTripCounter exercises spec property #5 across every
// record a Counter emits.
func TestBinaryRoundTripCounter(t *testing.T) {
	reg := aggregate.NewRegistry(testFactory(t, nil))
	reg.Add(wire.Sample{Type: wire.Counter, Name: "requests", Value: 3})
	reg.Add(wire.Sample{Type: wire.Counter, Name: "requests", Value: 4})
	reg.Freeze()

	var buf bytes.Buffer
	require.NoError(t, Binary{}.Serialize(reg, 42, &buf))

	data := buf.Bytes()
	var records []Record
	for len(data) > 0 {
		rec, n, err := DecodeRecord(data)
		require.NoError(t, err)
		records = append(records, rec)
		data = data[n:]
	}
	require.Len(t, records, 7) // sum, sumsq, mean, count, stddev, min, max

	byValueType := make(map[byte]Record)
	for _, r := range records {
		byValueType[r.ValueType] = r
		assert.Equal(t, uint64(42), r.Timestamp)
		assert.Equal(t, "requests", r.Key)
		assert.Equal(t, wire.CodeForType(wire.Counter), r.Type)
	}
	assert.Equal(t, 7.0, byValueType[vtSum].Value)
	assert.Equal(t, 2.0, byValueType[vtCount].Value)
	assert.Equal(t, 3.0, byValueType[vtMin].Value)
	assert.Equal(t, 4.0, byValueType[vtMax].Value)
}

func TestBinaryRoundTripHistogramCarriesCount(t *testing.T) {
	reg := aggregate.NewRegistry(testFactory(t, mustResolver(t)))
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 1})
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 6})
	reg.Add(wire.Sample{Type: wire.Timer, Name: "a", Value: 15})
	reg.Freeze()

	var buf bytes.Buffer
	require.NoError(t, Binary{}.Serialize(reg, 7, &buf))

	data := buf.Bytes()
	var histRecords []Record
	for len(data) > 0 {
		rec, n, err := DecodeRecord(data)
		require.NoError(t, err)
		if isHistogramValueType(rec.ValueType) {
			require.True(t, rec.HasCount)
			histRecords = append(histRecords, rec)
		}
		data = data[n:]
	}
	assert.Len(t, histRecords, 4) // floor + 2 linear bins + ceiling
}
