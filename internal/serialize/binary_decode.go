package serialize

import (
	"encoding/binary"
	"errors"
	"math"
)

// Record is one decoded binary-format record, used by tests to verify the
// round-trip property of spec §8 property 5: re-reading a serialized
// record must yield the exact timestamp, type, value_type, key and
// IEEE-754 bit pattern the encoder wrote.
type Record struct {
	Timestamp uint64
	Type      byte
	ValueType byte
	Key       string
	Value     float64
	HasCount  bool
	Count     uint32
}

// ErrShortRecord is returned by DecodeRecord when buf does not hold a
// complete record.
var ErrShortRecord = errors.New("serialize: short binary record")

func isHistogramValueType(vt byte) bool {
	return vt == vtHistLo || vt == vtHistBin || vt == vtHistHi
}

// DecodeRecord decodes one record from the front of buf, returning the
// record and the number of bytes it consumed.
func DecodeRecord(buf []byte) (Record, int, error) {
	if len(buf) < 20 {
		return Record{}, 0, ErrShortRecord
	}
	ts := binary.LittleEndian.Uint64(buf[0:8])
	mtype := buf[8]
	vtype := buf[9]
	keyLen := int(binary.LittleEndian.Uint16(buf[10:12]))
	value := math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20]))

	need := 20 + keyLen
	if isHistogramValueType(vtype) {
		need += 4
	}
	if len(buf) < need {
		return Record{}, 0, ErrShortRecord
	}

	keyBytes := buf[20 : 20+keyLen]
	if keyLen == 0 || keyBytes[keyLen-1] != 0 {
		return Record{}, 0, errors.New("serialize: key missing NUL terminator")
	}
	rec := Record{
		Timestamp: ts,
		Type:      mtype,
		ValueType: vtype,
		Key:       string(keyBytes[:keyLen-1]),
		Value:     value,
	}
	if isHistogramValueType(vtype) {
		rec.HasCount = true
		rec.Count = binary.LittleEndian.Uint32(buf[20+keyLen : need])
	}
	return rec, need, nil
}
