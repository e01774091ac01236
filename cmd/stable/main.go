// Command stable is the stable-marriage (Gale-Shapley) driver: it
// reads "prefs" and "query" lines from stdin (or from the batch file
// named by the -file flag), and after each "query" line prints the minimal
// preference records required to explain the queried matches.
// Grounded on original_source/examples/interactive-stable.rs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rosscartlidge/explaindf/internal/driver"
	"github.com/rosscartlidge/explaindf/internal/stablemodel"
	"github.com/rosscartlidge/explaindf/internal/telemetry"
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

func main() {
	var (
		batchFile   = flag.String("file", "", "path to a batch command file; defaults to stdin")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.New("explaindf_stable")
		go func() {
			if err := metrics.Serve(context.Background(), *metricsAddr); err != nil {
				log.Error("metrics server exited", "err", err)
			}
		}()
	}

	epoch := driver.NewEpoch(stablemodel.Compute, []string{"prefs"}, log, metrics)

	in := os.Stdin
	if *batchFile != "" {
		f, err := os.Open(*batchFile)
		if err != nil {
			log.Error("opening batch file", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	err := driver.Lines(in, func(line driver.Line) error {
		switch line.Command {
		case "prefs":
			a, err := line.Uint64Field(0)
			if err != nil {
				return err
			}
			pref1, err := line.Uint64Field(1)
			if err != nil {
				return err
			}
			b, err := line.Uint64Field(2)
			if err != nil {
				return err
			}
			pref2, err := line.Uint64Field(3)
			if err != nil {
				return err
			}
			epoch.AddInput("prefs", a, stablemodel.Offer{Rank: pref1, Partner: b, PartnerRank: pref2}, line.Sign)
			return nil
		case "query":
			a, err := line.Uint64Field(0)
			if err != nil {
				return err
			}
			pref1, err := line.Uint64Field(1)
			if err != nil {
				return err
			}
			b, err := line.Uint64Field(2)
			if err != nil {
				return err
			}
			pref2, err := line.Uint64Field(3)
			if err != nil {
				return err
			}
			epoch.AddQuery(a, stablemodel.Offer{Rank: pref1, Partner: b, PartnerRank: pref2}, dataflow.MaxTimestamp, 0, line.Sign)
			epoch.Advance()
			target := dataflow.Timestamp{Epoch: epoch.EpochNum()}

			var must driver.MustSets[uint64, stablemodel.Offer]
			err = epoch.WaitUntil(target, func() error {
				var stepErr error
				must, stepErr = epoch.Step()
				return stepErr
			})
			if err != nil {
				return err
			}
			printMustSets(must)
			return nil
		default:
			return nil
		}
	})
	if err != nil {
		log.Error("driver loop", "err", err)
		os.Exit(1)
	}
}

func printMustSets[K, V comparable](must driver.MustSets[K, V]) {
	for name, set := range must {
		for rec := range set {
			fmt.Printf("%s_must:\t%v\n", name, rec)
		}
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
