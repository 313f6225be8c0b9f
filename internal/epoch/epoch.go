// Package epoch provides the wall-clock second the flush controller stamps
// every rotation with (spec §2's "epoch clock" component).
package epoch

import "time"

// Clock abstracts time.Now so tests can pin the rotation timestamp.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock, backed by time.Now.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Frozen is a test Clock that always returns a fixed instant.
type Frozen time.Time

func (f Frozen) Now() time.Time { return time.Time(f) }
