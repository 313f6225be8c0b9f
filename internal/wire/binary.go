package wire

import (
	"encoding/binary"
	"math"
)

// Binary type codes, shared between ingress framing (this file) and the
// binary serializer (internal/serialize).
const (
	BinMagic byte = 0xAA

	TypeKeyVal     byte = 1
	TypeCounter    byte = 2
	TypeTimer      byte = 3
	TypeSet        byte = 4
	TypeGauge      byte = 5
	TypeGaugeDelta byte = 6
)

func metricTypeFromCode(code byte) (MetricType, bool) {
	switch code {
	case TypeKeyVal:
		return KeyVal, true
	case TypeCounter:
		return Counter, true
	case TypeTimer:
		return Timer, true
	case TypeSet:
		return Set, true
	case TypeGauge:
		return Gauge, true
	case TypeGaugeDelta:
		return GaugeDelta, true
	default:
		return 0, false
	}
}

// CodeForType is the inverse of metricTypeFromCode, used by the binary
// serializer to re-emit the same type codes ingress reads.
func CodeForType(t MetricType) byte {
	switch t {
	case KeyVal:
		return TypeKeyVal
	case Counter:
		return TypeCounter
	case Timer:
		return TypeTimer
	case Set:
		return TypeSet
	case Gauge:
		return TypeGauge
	case GaugeDelta:
		return TypeGaugeDelta
	default:
		return 0
	}
}

// BinaryParser implements the fixed-layout little-endian framing of §4.2.
// Every record begins with a 4-byte preamble (magic, type, key_len), then
// either an 8-byte double (non-set path) or a 2-byte set-value length
// followed by two NUL-terminated strings (set path).
type BinaryParser struct{}

// Next consumes exactly one complete record from r, or returns ErrNeedMore
// without consuming anything if the stream is short. ErrFraming is returned
// (and the connection must be closed) for a bad magic byte, unknown type
// code, or a missing NUL terminator.
func (BinaryParser) Next(r StreamReader) (Sample, error) {
	preamble, ok := r.PeekN(4)
	if !ok {
		return Sample{}, ErrNeedMore
	}
	if preamble[0] != BinMagic {
		return Sample{}, ErrFraming
	}
	typeCode := preamble[1]
	keyLen := int(binary.LittleEndian.Uint16(preamble[2:4]))

	mtype, ok := metricTypeFromCode(typeCode)
	if !ok {
		return Sample{}, ErrFraming
	}

	if mtype == Set {
		return parseSetBody(r, keyLen)
	}
	return parseScalarBody(r, mtype, keyLen)
}

// parseScalarBody and parseSetBody compute the full record length from the
// already-peeked preamble, then consume the whole record in a single
// ExtractN call so that a short stream never leaves a partially-consumed
// record behind.
func parseScalarBody(r StreamReader, mtype MetricType, keyLen int) (Sample, error) {
	total := 4 + 8 + keyLen
	record, ok := r.ExtractN(total)
	if !ok {
		return Sample{}, ErrNeedMore
	}
	body := record[4:]
	value := math.Float64frombits(binary.LittleEndian.Uint64(body[:8]))
	key := body[8:]
	if len(key) == 0 || key[len(key)-1] != 0 {
		return Sample{}, ErrFraming
	}
	return Sample{Type: mtype, Name: string(key[:len(key)-1]), Value: value}, nil
}

func parseSetBody(r StreamReader, keyLen int) (Sample, error) {
	lenPrefix, ok := r.PeekN(6)
	if !ok {
		return Sample{}, ErrNeedMore
	}
	setValueLen := int(binary.LittleEndian.Uint16(lenPrefix[4:6]))

	total := 6 + keyLen + setValueLen
	record, ok := r.ExtractN(total)
	if !ok {
		return Sample{}, ErrNeedMore
	}
	body := record[6:]
	key := body[:keyLen]
	member := body[keyLen:]
	if len(key) == 0 || key[len(key)-1] != 0 {
		return Sample{}, ErrFraming
	}
	if len(member) == 0 || member[len(member)-1] != 0 {
		return Sample{}, ErrFraming
	}
	return Sample{
		Type:      Set,
		Name:      string(key[:len(key)-1]),
		SetMember: string(member[:len(member)-1]),
	}, nil
}
