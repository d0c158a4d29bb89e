// Command analyze runs theme discovery over a transcript bundle and prints the themes as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/formbricks/insights/internal/bundle"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/pipeline"
	"github.com/formbricks/insights/internal/themes"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// report is the -full output.
//
//nolint:tagliatelle // output camelCase, same as the API
type report struct {
	RunID    string                      `json:"runId"`
	Themes   map[int]models.ThemeSummary `json:"themes"`
	Failures []themes.Failure            `json:"failures"`
	Stats    pipeline.Stats              `json:"stats"`
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	in := fs.String("in", bundle.Stdin, "transcript bundle (.json, .yaml or - for stdin)")
	out := fs.String("out", "", "output file (default stdout)")
	optimize := fs.Bool("optimize", false, "search the cluster count by silhouette score (default CLUSTER_OPTIMIZE)")
	full := fs.Bool("full", false, "print run id, failures and stats along with the themes")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	// Logs go to stderr so stdout stays valid JSON.
	observability.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	var input bundle.Analysis
	if err := bundle.Load(*in, &input); err != nil {
		slog.Error("Failed to read transcript bundle", "path", *in, "error", err)

		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := pipeline.NewFromConfig(ctx, cfg, nil)
	if err != nil {
		slog.Error("Failed to create analyzer", "error", err)

		return exitFailure
	}

	req := pipeline.Input{
		Transcripts:          input.Transcripts,
		ProductDescription:   input.ProductDescription,
		UserGroupDescription: input.UserGroupDescription,
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "optimize" {
			req.Optimize = optimize
		}
	})

	result, err := analyzer.Analyze(ctx, req)
	if err != nil {
		slog.Error("Analysis failed", "error", err)

		return exitFailure
	}

	var output any = result.Themes
	if *full {
		output = report{RunID: result.RunID, Themes: result.Themes, Failures: result.Failures, Stats: result.Stats}
	}

	if err := bundle.WriteJSON(*out, output); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return exitFailure
	}

	return exitSuccess
}
