// Package wire implements the statsd-compatible text and binary framing
// protocols: turning a byte stream into (type, name, value) samples.
package wire

import "errors"

// MetricType is the closed set of metric kinds the wire protocols carry.
type MetricType uint8

const (
	Counter MetricType = iota + 1
	Timer
	Gauge
	GaugeDelta
	Set
	KeyVal
)

func (t MetricType) String() string {
	switch t {
	case Counter:
		return "counter"
	case Timer:
		return "timer"
	case Gauge:
		return "gauge"
	case GaugeDelta:
		return "gauge_delta"
	case Set:
		return "set"
	case KeyVal:
		return "kv"
	default:
		return "unknown"
	}
}

// Sample is a transient (type, name, value) triple produced by a parser.
// Value holds the numeric payload for every type except Set, where SetMember
// carries the raw member to fold into the set instead.
type Sample struct {
	Type      MetricType
	Name      string
	Value     float64
	SetMember string
}

var (
	// ErrNeedMore signals that the stream does not yet hold a complete
	// record. No bytes were consumed; the driver should return and retry
	// once more data has arrived.
	ErrNeedMore = errors.New("wire: need more data")

	// ErrParse is returned for malformed text-protocol lines (bad type
	// letter, unparsable number, missing terminator mid-line).
	ErrParse = errors.New("wire: parse error")

	// ErrFraming is returned for malformed binary-protocol records (bad
	// magic byte, unknown type code, missing NUL terminator).
	ErrFraming = errors.New("wire: framing error")
)

// StreamReader is the byte-stream contract every parser consumes. It mirrors
// the teacher's "peek / read-N / not-ready" convention instead of a
// blocking io.Reader: a parser must never block inside these calls, and
// must never be left having consumed a partial record.
type StreamReader interface {
	// PeekByte returns the next unconsumed byte without advancing the
	// stream. ok is false if no byte is currently buffered.
	PeekByte() (b byte, ok bool)

	// ExtractUntil returns the run of bytes up to (not including) the
	// next occurrence of terminator, consuming through the terminator.
	// ok is false if no terminator has arrived yet, in which case no
	// bytes are consumed.
	ExtractUntil(terminator byte) (slice []byte, ok bool)

	// ExtractN consumes and returns exactly n bytes. ok is false if fewer
	// than n bytes are currently buffered, in which case no bytes are
	// consumed.
	ExtractN(n int) (slice []byte, ok bool)

	// PeekN returns the next n bytes without consuming them. ok is false
	// if fewer than n bytes are currently buffered. Used by framed
	// protocols that must compute a full record length (header plus
	// variable-length body) before committing a single atomic
	// consumption of the whole record.
	PeekN(n int) (slice []byte, ok bool)
}
