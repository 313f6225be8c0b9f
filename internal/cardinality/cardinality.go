// Package cardinality provides the probabilistic set-cardinality estimator
// SetAcc needs, satisfying the "add(bytes)/cardinality()" contract of spec
// §9 without pinning the implementation to a specific algorithm.
package cardinality

import "github.com/axiomhq/hyperloglog"

// Estimator is the plug-in contract for a cardinality sketch.
type Estimator interface {
	Add(member string)
	Estimate() uint64
}

// HLL backs Estimator with a HyperLogLog++ sketch.
type HLL struct {
	sk *hyperloglog.Sketch
}

// NewHLL builds an estimator at the given precision (4..18; higher costs
// more memory for a tighter error bound). Precision outside that range
// falls back to the library's default.
func NewHLL(precision uint8) *HLL {
	if precision < 4 || precision > 18 {
		return &HLL{sk: hyperloglog.New()}
	}
	sk, err := hyperloglog.NewSketch(precision, true)
	if err != nil {
		return &HLL{sk: hyperloglog.New()}
	}
	return &HLL{sk: sk}
}

func (h *HLL) Add(member string) {
	h.sk.Insert([]byte(member))
}

func (h *HLL) Estimate() uint64 {
	return h.sk.Estimate()
}
