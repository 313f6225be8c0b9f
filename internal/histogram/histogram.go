// Package histogram resolves per-metric fixed-grid histogram configuration
// (spec §3, HistogramConfig) through an ordered list of glob patterns,
// mirroring how telegraf plugins glob-match metric/tag/field names.
package histogram

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Config is the fixed-grid histogram shape for one metric: a floor bucket
// for samples below Min, NumBins-2 linear bins of width BinWidth, and a
// ceiling bucket for samples at or above Max.
type Config struct {
	Min, Max, BinWidth float64
	NumBins            int
}

// Validate rejects configurations spec §9(b) calls out as malformed at
// load time: fewer than 3 bins underflows the formatter's bin index math.
func (c Config) Validate() error {
	if c.NumBins < 3 {
		return fmt.Errorf("histogram: num_bins must be >= 3, got %d", c.NumBins)
	}
	if c.Max <= c.Min {
		return fmt.Errorf("histogram: max (%v) must be greater than min (%v)", c.Max, c.Min)
	}
	if c.BinWidth <= 0 {
		return fmt.Errorf("histogram: bin_width must be positive, got %v", c.BinWidth)
	}
	return nil
}

// LinearBins returns the number of interior linear bins (excluding floor
// and ceiling).
func (c Config) LinearBins() int { return c.NumBins - 2 }

// Bucket returns which of the NumBins buckets v falls into: 0 is the
// floor, NumBins-1 is the ceiling, and 1..NumBins-2 are the linear bins.
func (c Config) Bucket(v float64) int {
	if v < c.Min {
		return 0
	}
	if v >= c.Max {
		return c.NumBins - 1
	}
	bin := int((v - c.Min) / c.BinWidth)
	if bin >= c.LinearBins() {
		bin = c.LinearBins() - 1
	}
	return 1 + bin
}

type rule struct {
	pattern glob.Glob
	cfg     Config
}

// Pattern is one entry of a histogram resolver table: glob pattern plus the
// histogram shape it selects. Order matters — NewResolver preserves the
// order patterns are given in, and the first match wins.
type Pattern struct {
	Match string
	Config
}

// Resolver is an ordered, first-match pattern → Config table, constant for
// the process lifetime once built.
type Resolver struct {
	rules []rule
}

// NewResolver compiles patterns in order; earlier patterns take precedence.
// An invalid glob or an invalid Config is a load-time error.
func NewResolver(patterns []Pattern) (*Resolver, error) {
	r := &Resolver{}
	for _, p := range patterns {
		if err := p.Config.Validate(); err != nil {
			return nil, fmt.Errorf("histogram pattern %q: %w", p.Match, err)
		}
		g, err := glob.Compile(p.Match)
		if err != nil {
			return nil, fmt.Errorf("histogram pattern %q: %w", p.Match, err)
		}
		r.rules = append(r.rules, rule{pattern: g, cfg: p.Config})
	}
	return r, nil
}

// Resolve returns the first matching Config for name, or ok=false if no
// pattern matches (the metric gets no histogram).
func (r *Resolver) Resolve(name string) (Config, bool) {
	if r == nil {
		return Config{}, false
	}
	for _, rl := range r.rules {
		if rl.pattern.Match(name) {
			return rl.cfg, true
		}
	}
	return Config{}, false
}
