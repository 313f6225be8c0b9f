package wire

import "strconv"

// TextParser implements the statsd line grammar:
//
//	name ":" value "|" type [ "|@" sample_rate ] "\n"
//
// One call to Next consumes at most one line. It returns ErrNeedMore if the
// terminating '\n' has not arrived yet (no bytes consumed), or ErrParse if
// the line is malformed (the caller should close the connection).
type TextParser struct{}

// Next extracts and parses the next statsd line from r.
func (TextParser) Next(r StreamReader) (Sample, error) {
	line, ok := r.ExtractUntil('\n')
	if !ok {
		return Sample{}, ErrNeedMore
	}

	colon := indexByte(line, ':')
	if colon < 0 {
		return Sample{}, ErrParse
	}
	name := line[:colon]
	if len(name) == 0 || containsNUL(name) {
		return Sample{}, ErrParse
	}
	rest := line[colon+1:]

	pipe := indexByte(rest, '|')
	if pipe < 0 {
		return Sample{}, ErrParse
	}
	value := rest[:pipe]
	rest = rest[pipe+1:]
	if len(rest) == 0 {
		return Sample{}, ErrParse
	}

	typeLetter := rest[0]
	rest = rest[1:]

	var sampleRate float64
	hasSampleRate := false
	if len(rest) > 0 {
		// The grammar's "|@rate" suffix; some clients (and the concrete
		// test fixtures) emit "@rate" directly after the type letter
		// with no second pipe. Accept both.
		var rateSlice []byte
		switch {
		case rest[0] == '@':
			rateSlice = rest[1:]
		case len(rest) >= 2 && rest[0] == '|' && rest[1] == '@':
			rateSlice = rest[2:]
		default:
			return Sample{}, ErrParse
		}
		rate, err := parseFloat(rateSlice)
		if err != nil {
			return Sample{}, ErrParse
		}
		sampleRate = rate
		hasSampleRate = true
	}

	mtype, err := typeFromLetter(typeLetter, value)
	if err != nil {
		return Sample{}, err
	}

	// Set values are opaque member strings; never run through the
	// numeric parser.
	if mtype == Set {
		return Sample{Type: Set, Name: string(name), SetMember: string(value)}, nil
	}

	switch mtype {
	case Gauge:
		if len(value) > 0 && value[0] == '+' {
			value = value[1:]
		}
	case GaugeDelta:
		// leading '-' is kept so the sign survives numeric parsing.
	}

	v, err := parseFloat(value)
	if err != nil {
		return Sample{}, ErrParse
	}

	if mtype == Counter && hasSampleRate && sampleRate > 0 && sampleRate <= 1 {
		v /= sampleRate
	}

	return Sample{Type: mtype, Name: string(name), Value: v}, nil
}

func typeFromLetter(letter byte, value []byte) (MetricType, error) {
	switch letter {
	case 'c':
		return Counter, nil
	case 'm':
		return Timer, nil
	case 'k':
		return KeyVal, nil
	case 's':
		return Set, nil
	case 'g':
		if len(value) > 0 && value[0] == '-' {
			return GaugeDelta, nil
		}
		return Gauge, nil
	default:
		return 0, ErrParse
	}
}

// parseFloat implements the permissive grammar of §4.1: optional leading
// '-', an integer part, an optional '.' and fractional part, no exponents.
// At least one digit must be consumed.
func parseFloat(b []byte) (float64, error) {
	if len(b) == 0 {
		return 0, ErrParse
	}
	i := 0
	if b[i] == '-' {
		i++
	}
	start := i
	for i < len(b) && isDigit(b[i]) {
		i++
	}
	digits := i - start
	if i < len(b) && b[i] == '.' {
		i++
		fracStart := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		digits += i - fracStart
	}
	if digits == 0 || i != len(b) {
		return 0, ErrParse
	}
	return strconv.ParseFloat(string(b), 64)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func containsNUL(b []byte) bool {
	for _, x := range b {
		if x == 0 {
			return true
		}
	}
	return false
}
