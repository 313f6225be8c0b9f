// Package connio drives a single connection's byte stream through the
// text or binary parser, as selected by the connection's first byte.
package connio

import (
	"errors"

	"github.com/metricsd/metricsd/internal/wire"
)

// Sink receives every sample a connection's parser produces. The current
// aggregator registry satisfies this.
type Sink interface {
	Add(s wire.Sample)
}

type mode int

const (
	modeUnselected mode = iota
	modeText
	modeBinary
)

// Driver is per-connection state: never shared across connections, driven
// synchronously from a single reader goroutine per the concurrency model of
// spec §5 ("The text/binary parser itself is single-threaded over one
// connection's byte stream").
type Driver struct {
	stream       wire.StreamReader
	mode         mode
	textParser   wire.TextParser
	binaryParser wire.BinaryParser

	sink Sink
	// OnAccepted, if set, is called once per accepted sample — the
	// input_counter hook of spec §6.
	OnAccepted func()
}

// New returns a driver reading from stream and feeding accepted samples to
// sink. Mode is not yet fixed; it is decided on the first call to Drive
// once at least one byte is available.
func New(stream wire.StreamReader, sink Sink) *Driver {
	return &Driver{stream: stream, sink: sink}
}

// Drive runs the selected parser to exhaustion: it consumes every complete
// record currently buffered, then returns nil so the caller can read more
// bytes and call Drive again. A non-nil error (wire.ErrParse or
// wire.ErrFraming) means the stream is unrecoverable and the connection
// must be closed; Drive performs no further reads after that.
func (d *Driver) Drive() error {
	if d.mode == modeUnselected {
		b, ok := d.stream.PeekByte()
		if !ok {
			return nil
		}
		if b == wire.BinMagic {
			d.mode = modeBinary
		} else {
			d.mode = modeText
		}
	}

	for {
		var (
			sample wire.Sample
			err    error
		)
		switch d.mode {
		case modeBinary:
			sample, err = d.binaryParser.Next(d.stream)
		default:
			sample, err = d.textParser.Next(d.stream)
		}

		switch {
		case err == nil:
			d.sink.Add(sample)
			if d.OnAccepted != nil {
				d.OnAccepted()
			}
		case errors.Is(err, wire.ErrNeedMore):
			return nil
		default:
			return err
		}
	}
}
