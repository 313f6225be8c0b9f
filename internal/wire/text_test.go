package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	buf []byte
}

func (s *fakeStream) PeekByte() (byte, bool) {
	if len(s.buf) == 0 {
		return 0, false
	}
	return s.buf[0], true
}

func (s *fakeStream) ExtractUntil(terminator byte) ([]byte, bool) {
	for i, b := range s.buf {
		if b == terminator {
			out := append([]byte(nil), s.buf[:i]...)
			s.buf = s.buf[i+1:]
			return out, true
		}
	}
	return nil, false
}

func (s *fakeStream) ExtractN(n int) ([]byte, bool) {
	if len(s.buf) < n {
		return nil, false
	}
	out := append([]byte(nil), s.buf[:n]...)
	s.buf = s.buf[n:]
	return out, true
}

func (s *fakeStream) PeekN(n int) ([]byte, bool) {
	if len(s.buf) < n {
		return nil, false
	}
	return s.buf[:n], true
}

func TestTextParserCounter(t *testing.T) {
	r := &fakeStream{buf: []byte("a:1|c\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, Counter, sample.Type)
	assert.Equal(t, "a", sample.Name)
	assert.Equal(t, 1.0, sample.Value)
}

func TestTextParserCounterSampleRate(t *testing.T) {
	r := &fakeStream{buf: []byte("a:3|c@0.5\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, Counter, sample.Type)
	assert.Equal(t, 6.0, sample.Value)
}

func TestTextParserCounterSampleRatePipeForm(t *testing.T) {
	r := &fakeStream{buf: []byte("a:3|c|@0.5\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, 6.0, sample.Value)
}

func TestTextParserGaugeAbsolute(t *testing.T) {
	r := &fakeStream{buf: []byte("x:5|g\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, Gauge, sample.Type)
	assert.Equal(t, 5.0, sample.Value)
}

func TestTextParserGaugeDelta(t *testing.T) {
	r := &fakeStream{buf: []byte("x:-2|g\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, GaugeDelta, sample.Type)
	assert.Equal(t, -2.0, sample.Value)
}

func TestTextParserGaugePlusSign(t *testing.T) {
	r := &fakeStream{buf: []byte("x:+5|g\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, Gauge, sample.Type)
	assert.Equal(t, 5.0, sample.Value)
}

func TestTextParserSet(t *testing.T) {
	r := &fakeStream{buf: []byte("u:alice|s\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, Set, sample.Type)
	assert.Equal(t, "u", sample.Name)
	assert.Equal(t, "alice", sample.SetMember)
}

func TestTextParserKeyVal(t *testing.T) {
	r := &fakeStream{buf: []byte("k:9|k\n")}
	var p TextParser
	sample, err := p.Next(r)
	require.NoError(t, err)
	assert.Equal(t, KeyVal, sample.Type)
	assert.Equal(t, 9.0, sample.Value)
}

func TestTextParserNeedsMore(t *testing.T) {
	r := &fakeStream{buf: []byte("a:1|c")}
	var p TextParser
	_, err := p.Next(r)
	require.ErrorIs(t, err, ErrNeedMore)
	assert.Equal(t, "a:1|c", string(r.buf), "no bytes should be consumed")
}

func TestTextParserBadTypeLetter(t *testing.T) {
	r := &fakeStream{buf: []byte("a:1|z\n")}
	var p TextParser
	_, err := p.Next(r)
	require.ErrorIs(t, err, ErrParse)
}

func TestTextParserMissingColon(t *testing.T) {
	r := &fakeStream{buf: []byte("a1|c\n")}
	var p TextParser
	_, err := p.Next(r)
	require.ErrorIs(t, err, ErrParse)
}

func TestTextParserNonNumericValue(t *testing.T) {
	r := &fakeStream{buf: []byte("a:abc|c\n")}
	var p TextParser
	_, err := p.Next(r)
	require.ErrorIs(t, err, ErrParse)
}

func TestTextParserMultipleLines(t *testing.T) {
	r := &fakeStream{buf: []byte("a:1|c\na:2|c\na:3|c@0.5\n")}
	var p TextParser
	var sum float64
	for i := 0; i < 3; i++ {
		s, err := p.Next(r)
		require.NoError(t, err)
		sum += s.Value
	}
	assert.Equal(t, 9.0, sum)
}

func TestTextParserByteAtATime(t *testing.T) {
	full := []byte("a:1|c\nb:2|m\n")
	r := &fakeStream{}
	var p TextParser
	var got []Sample
	for _, b := range full {
		r.buf = append(r.buf, b)
		for {
			s, err := p.Next(r)
			if err == ErrNeedMore {
				break
			}
			require.NoError(t, err)
			got = append(got, s)
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}
