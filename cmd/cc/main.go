// Command cc is the connected-components / label-propagation driver:
// it reads "graph", "label" and "query" lines from stdin (or from the
// batch file named by the -file flag), and after each "query" line prints
// the minimal graph and label records required to explain the queried
// labels. Grounded on original_source/examples/cc.rs and
// interactive-cc.rs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rosscartlidge/explaindf/internal/ccmodel"
	"github.com/rosscartlidge/explaindf/internal/driver"
	"github.com/rosscartlidge/explaindf/internal/telemetry"
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

func main() {
	var (
		batchFile   = flag.String("file", "", "path to a batch command file; defaults to stdin")
		graphCSV    = flag.String("graph-csv", "", "path to a CSV file of src,dst[,sign] graph edges to load before the REPL loop starts")
		labelCSV    = flag.String("label-csv", "", "path to a CSV file of node,label[,sign] rows to load before the REPL loop starts")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.New("explaindf_cc")
		go func() {
			if err := metrics.Serve(context.Background(), *metricsAddr); err != nil {
				log.Error("metrics server exited", "err", err)
			}
		}()
	}

	epoch := driver.NewEpoch(ccmodel.Compute, []string{"graph", "label"}, log, metrics)

	if err := loadCSV(*graphCSV, "graph", epoch); err != nil {
		log.Error("loading graph CSV", "err", err)
		os.Exit(1)
	}
	if err := loadCSV(*labelCSV, "label", epoch); err != nil {
		log.Error("loading label CSV", "err", err)
		os.Exit(1)
	}

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
		case "graph":
			src, err := line.Uint64Field(0)
			if err != nil {
				return err
			}
			dst, err := line.Uint64Field(1)
			if err != nil {
				return err
			}
			epoch.AddInput("graph", src, dst, line.Sign)
			return nil
		case "label":
			node, err := line.Uint64Field(0)
			if err != nil {
				return err
			}
			label, err := line.Uint64Field(1)
			if err != nil {
				return err
			}
			epoch.AddInput("label", node, label, line.Sign)
			return nil
		case "query":
			node, err := line.Uint64Field(0)
			if err != nil {
				return err
			}
			label, err := line.Uint64Field(1)
			if err != nil {
				return err
			}
			epoch.AddQuery(node, label, dataflow.MaxTimestamp, 0, line.Sign)
			epoch.Advance()
			target := dataflow.Timestamp{Epoch: epoch.EpochNum()}

			var must driver.MustSets[uint64, uint64]
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

func loadCSV(path, input string, epoch *driver.Epoch[uint64, uint64]) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := driver.NewCSVFactSource(f).ReadAll()
	if err != nil {
		return err
	}
	driver.LoadInto(rows, func(r driver.FactRow) (uint64, uint64) { return r.Key, r.Val }, input, epoch)
	return nil
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
