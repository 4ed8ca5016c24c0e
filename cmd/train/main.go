// Command train fits the crop productivity and thermal sensation models and
// writes their charts, serialized pipelines and reports.
//
//	train -model crop -out ./artifacts -trees 800 -format png
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ezoic/agrodash/dataset"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
	"github.com/ezoic/agrodash/render"
	"github.com/ezoic/agrodash/training"
)

const (
	modelCrop    = "crop"
	modelThermal = "thermal"
	modelAll     = "all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.LogError(err, "training failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var (
		which     = fs.String("model", modelAll, "model to train: crop, thermal or all")
		out       = fs.String("out", ".", "output directory; with -model all each model gets a subdirectory")
		trees     = fs.Int("trees", training.DefaultTrees, "number of trees of the crop forest")
		seed      = fs.Uint64("seed", dataset.DefaultSeed, "seed of the split, the forest and the simulated data")
		testSize  = fs.Float64("test-size", training.DefaultTestSize, "fraction of samples held out for testing")
		format    = fs.String("format", render.FormatPNG, "chart format: png or svg")
		logLevel  = fs.String("log-level", "info", "log level")
		logFormat = fs.String("log-format", "console", "log format: console or json")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	log.Setup(os.Stderr, *logLevel, *logFormat)

	opts := training.DefaultOptions()
	opts.Trees = *trees
	opts.Seed = *seed
	opts.TestSize = *testSize
	opts.Format = *format

	type job struct {
		name string
		fn   func(context.Context, training.Options) (*training.Result, error)
	}
	var jobs []job
	switch *which {
	case modelCrop:
		jobs = []job{{modelCrop, training.RunCrop}}
	case modelThermal:
		jobs = []job{{modelThermal, training.RunThermal}}
	case modelAll:
		jobs = []job{{modelCrop, training.RunCrop}, {modelThermal, training.RunThermal}}
	default:
		return agroErrors.NewValidationError("model", "must be crop, thermal or all", *which)
	}

	for _, j := range jobs {
		opts.OutDir = *out
		if len(jobs) > 1 {
			opts.OutDir = filepath.Join(*out, j.name)
		}
		res, err := j.fn(ctx, opts)
		if err != nil {
			return agroErrors.Wrapf(err, "train %s", j.name)
		}
		printSummary(stdout, res)
	}
	return nil
}

func printSummary(w io.Writer, res *training.Result) {
	rep := res.Report
	fmt.Fprintf(w, "Modelo: %s (%s)\n", rep.Name, rep.Algorithm)
	fmt.Fprintf(w, "R²: %.4f\n", rep.R2)
	fmt.Fprintf(w, "MAPE: %.4f%%\n", rep.MAPE)
	fmt.Fprintln(w, "Importância das variáveis:")
	ranked := rep.Ranked()
	for i := len(ranked) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "  %-16s %.4f\n", ranked[i].DisplayName(), ranked[i].Weight)
	}
	fmt.Fprintln(w, "Arquivos:")
	for _, p := range res.Artifacts {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
