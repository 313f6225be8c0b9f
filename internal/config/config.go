// Package config loads metricsd's on-disk TOML configuration, the
// standalone-daemon equivalent of the teacher's toml-tagged plugin struct
// (Statsd.ServiceAddress, Statsd.Protocol, ...) decoded with
// github.com/BurntSushi/toml.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/metricsd/metricsd/internal/histogram"
)

// Duration wraps time.Duration so it can be written as a plain string
// ("10s", "500ms") in TOML, mirroring the teacher's own
// telegraf/config.Duration field type (Statsd.MaxTTL, Statsd.TCPKeepAlivePeriod)
// — that package is framework-internal and unimportable here, so the same
// UnmarshalText trick is reimplemented locally.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", string(b), err)
	}
	*d = Duration(parsed)
	return nil
}

// HistogramEntry is one row of the `[[histograms]]` table: a glob pattern
// and the fixed-grid shape it selects, decoded in file order so the
// resolver's first-match semantics match the file's declaration order.
type HistogramEntry struct {
	Match    string  `toml:"match"`
	Min      float64 `toml:"min"`
	Max      float64 `toml:"max"`
	BinWidth float64 `toml:"bin_width"`
	NumBins  int     `toml:"num_bins"`
}

// Config is the full set of options spec §6 recognises, plus the
// transport and process settings a standalone daemon needs that a
// telegraf-hosted plugin gets for free from the framework.
type Config struct {
	// Aggregation.
	TimerEps     float64          `toml:"timer_eps"`
	SetPrecision uint8            `toml:"set_precision"`
	Histograms   []HistogramEntry `toml:"histograms"`
	InputCounter string           `toml:"input_counter"`

	// Outbound sink.
	BinaryStream bool   `toml:"binary_stream"`
	StreamCmd    string `toml:"stream_cmd"`

	// Flush scheduling.
	FlushInterval Duration `toml:"flush_interval"`

	// Transport (out of scope for the core per spec §1, but required to
	// run the daemon standalone).
	Protocol       string `toml:"protocol"`
	ServiceAddress string `toml:"service_address"`

	// Process.
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration the daemon falls back to for any
// option left unset by the file.
func Default() Config {
	return Config{
		TimerEps:       0.01,
		SetPrecision:   14,
		BinaryStream:   false,
		StreamCmd:      "cat",
		FlushInterval:  Duration(10 * time.Second),
		Protocol:       "udp",
		ServiceAddress: "0.0.0.0:8125",
		LogLevel:       "info",
	}
}

// Load decodes the TOML file at path over Default(), then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants the loader and serializer depend on,
// including spec §9(b)'s load-time histogram rejection.
func (c Config) Validate() error {
	if c.TimerEps <= 0 || c.TimerEps >= 1 {
		return fmt.Errorf("config: timer_eps must satisfy 0 < eps < 1, got %v", c.TimerEps)
	}
	if c.StreamCmd == "" {
		return fmt.Errorf("config: stream_cmd must not be empty")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("config: flush_interval must be positive")
	}
	if _, err := c.HistogramPatterns(); err != nil {
		return err
	}
	return nil
}

// HistogramPatterns converts the file's declaration-ordered entries into
// histogram.Pattern values, validating each one (surfacing the same
// num_bins < 3 / max <= min errors histogram.NewResolver would).
func (c Config) HistogramPatterns() ([]histogram.Pattern, error) {
	patterns := make([]histogram.Pattern, 0, len(c.Histograms))
	for _, h := range c.Histograms {
		cfg := histogram.Config{Min: h.Min, Max: h.Max, BinWidth: h.BinWidth, NumBins: h.NumBins}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: histogram %q: %w", h.Match, err)
		}
		patterns = append(patterns, histogram.Pattern{Match: h.Match, Config: cfg})
	}
	return patterns, nil
}
