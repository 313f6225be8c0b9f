// Command metricsd is the standalone daemon entrypoint: it wires the
// config loader, logger, self-telemetry registry, aggregator, flush
// controller, serializer, child-process sink and TCP/UDP listeners
// together and runs until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/metricsd/metricsd/internal/aggregate"
	"github.com/metricsd/metricsd/internal/config"
	"github.com/metricsd/metricsd/internal/epoch"
	"github.com/metricsd/metricsd/internal/flush"
	"github.com/metricsd/metricsd/internal/histogram"
	"github.com/metricsd/metricsd/internal/logging"
	"github.com/metricsd/metricsd/internal/serialize"
	"github.com/metricsd/metricsd/internal/sink"
	"github.com/metricsd/metricsd/internal/telemetry"
	"github.com/metricsd/metricsd/internal/transport"
	"github.com/metricsd/metricsd/internal/wire"
)

// version is stamped at build time via -ldflags; left as a placeholder
// default for unreleased builds.
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "metricsd",
		Usage:   "statsd-compatible metrics aggregation daemon",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "metricsd.toml",
				Usage:   "path to the TOML configuration file",
			},
		},
		Action: runDaemon,
		Commands: []*cli.Command{
			{
				Name:  "validate-config",
				Usage: "load a config file, resolve every histogram pattern, and report bin counts without starting the daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Value:   "metricsd.toml",
						Usage:   "path to the TOML configuration file",
					},
				},
				Action: validateConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func validateConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	patterns, err := cfg.HistogramPatterns()
	if err != nil {
		return err
	}
	fmt.Printf("config OK: %d histogram pattern(s)\n", len(patterns))
	for _, p := range patterns {
		fmt.Printf("  %-30s bins=%d [%.2f, %.2f) width=%.2f\n", p.Match, p.NumBins, p.Min, p.Max, p.BinWidth)
	}
	return nil
}

func runDaemon(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	reg := prometheus.NewRegistry()
	stats := telemetry.NewStats(reg)

	patterns, err := cfg.HistogramPatterns()
	if err != nil {
		return err
	}
	resolver, err := histogram.NewResolver(patterns)
	if err != nil {
		return err
	}

	factory := &aggregate.Factory{
		TimerEps:     cfg.TimerEps,
		SetPrecision: cfg.SetPrecision,
		Histograms:   resolver,
	}

	var serializer flush.Serializer
	if cfg.BinaryStream {
		serializer = serialize.Binary{}
	} else {
		serializer = serialize.Text{}
	}

	sinkOpener := &sink.ChildProcess{Cmd: cfg.StreamCmd}

	controller := flush.New(factory, epoch.Real{}, serializer, sinkOpener, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hooks := transport.Hooks{
		OnTCPConnOpen:  func() { stats.ConnectionsOpen.Inc(); stats.ConnectionsTotal.Inc() },
		OnTCPConnClose: func() { stats.ConnectionsOpen.Dec() },
		OnUDPPacket: func(n int) {
			stats.UDPPacketsRecv.Inc()
			stats.UDPBytesRecv.Add(float64(n))
		},
		OnUDPDrop: func() { stats.UDPPacketsDrop.Inc() },
		OnSampleAccepted: func() {
			stats.SamplesAccepted.Inc()
			if cfg.InputCounter != "" {
				controller.Add(wire.Sample{Type: wire.Counter, Name: cfg.InputCounter, Value: 1})
			}
		},
	}

	errs := make(chan error, 1)
	go func() {
		var err error
		if cfg.Protocol == "tcp" {
			err = transport.ListenTCP(ctx, cfg.ServiceAddress, controller, log, hooks)
		} else {
			err = transport.ListenUDP(ctx, cfg.ServiceAddress, controller, log, hooks)
		}
		if err != nil {
			errs <- err
		}
	}()

	ticker := time.NewTicker(time.Duration(cfg.FlushInterval))
	defer ticker.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			controller.Rotate()
			stats.RotationsTotal.Inc()
			stats.RotationSeconds.Observe(time.Since(start).Seconds())

		case err := <-errs:
			cancel()
			return err

		case <-sigs:
			log.Infof("shutting down")
			cancel()
			controller.FinalFlush()
			return nil
		}
	}
}
