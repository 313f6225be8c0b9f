// Package quantile provides the streaming quantile sketch TimerAcc needs,
// satisfying the "add(double)/query(quantile)" contract of spec §9 without
// pinning the implementation to a specific algorithm.
package quantile

import tdigest "github.com/caio/go-tdigest"

// Sketch is the plug-in contract for a sub-linear quantile estimator.
type Sketch interface {
	Add(v float64)
	Quantile(q float64) float64
	Count() uint64
}

// TDigest backs Sketch with a t-digest, the sketch the teacher's own go.mod
// already declares (github.com/caio/go-tdigest).
type TDigest struct {
	td    *tdigest.TDigest
	count uint64
}

// NewTDigest builds a sketch targeting the given compression (roughly
// 1/epsilon; higher values trade memory for accuracy). eps must be in
// (0, 1); a non-positive or out-of-range eps falls back to a sane default.
func NewTDigest(eps float64) *TDigest {
	compression := float64(100)
	if eps > 0 && eps < 1 {
		compression = 1 / eps
	}
	td, err := tdigest.New(tdigest.Compression(compression))
	if err != nil {
		// Compression out of the library's accepted range: fall back
		// to its default construction, which cannot fail.
		td, _ = tdigest.New()
	}
	return &TDigest{td: td}
}

func (t *TDigest) Add(v float64) {
	t.count++
	_ = t.td.Add(v)
}

func (t *TDigest) Quantile(q float64) float64 {
	if t.count == 0 {
		return 0
	}
	return t.td.Quantile(q)
}

func (t *TDigest) Count() uint64 { return t.count }
