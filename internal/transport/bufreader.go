// Package transport is the external-collaborator layer the core spec treats
// as out of scope: TCP/UDP acceptance and the byte-stream buffer that feeds
// internal/wire parsers. Kept intentionally minimal.
package transport

import "github.com/metricsd/metricsd/internal/wire"

// BufStream is a growing byte buffer implementing wire.StreamReader. Bytes
// are appended by Feed as they arrive off a connection; to bound memory
// growth, Feed drops consumed bytes from the front once every buffered byte
// has been consumed or once more than 4096 bytes have been.
type BufStream struct {
	buf []byte
	off int
}

var _ wire.StreamReader = (*BufStream)(nil)

// Feed appends newly read bytes to the stream.
func (s *BufStream) Feed(b []byte) {
	if s.off > 0 && s.off == len(s.buf) {
		s.buf = s.buf[:0]
		s.off = 0
	} else if s.off > 4096 {
		s.buf = append(s.buf[:0], s.buf[s.off:]...)
		s.off = 0
	}
	s.buf = append(s.buf, b...)
}

func (s *BufStream) unread() []byte { return s.buf[s.off:] }

func (s *BufStream) PeekByte() (byte, bool) {
	u := s.unread()
	if len(u) == 0 {
		return 0, false
	}
	return u[0], true
}

func (s *BufStream) ExtractUntil(terminator byte) ([]byte, bool) {
	u := s.unread()
	for i, b := range u {
		if b == terminator {
			out := make([]byte, i)
			copy(out, u[:i])
			s.off += i + 1
			return out, true
		}
	}
	return nil, false
}

func (s *BufStream) ExtractN(n int) ([]byte, bool) {
	u := s.unread()
	if len(u) < n {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, u[:n])
	s.off += n
	return out, true
}

func (s *BufStream) PeekN(n int) ([]byte, bool) {
	u := s.unread()
	if len(u) < n {
		return nil, false
	}
	return u[:n], true
}

// Len reports the number of unconsumed buffered bytes.
func (s *BufStream) Len() int { return len(s.unread()) }
