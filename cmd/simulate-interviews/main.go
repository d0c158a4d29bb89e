// Command simulate-interviews runs one simulated interview per persona in a bundle and writes
// an analysis bundle with the transcripts, ready for the analyze command.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/formbricks/insights/internal/bundle"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/interview"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/pipeline"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("simulate-interviews", flag.ContinueOnError)
	in := fs.String("in", bundle.Stdin, "persona bundle (.json, .yaml or - for stdin)")
	out := fs.String("out", "", "output file (default stdout)")
	userGroup := fs.String("user-group", "", "user group description copied into the output bundle")
	parallel := fs.Int("parallel", 2, "interviews run at once")
	reasoning := fs.Bool("reasoning", false, "ask both personas to reason in <thinking> before answering")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	observability.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	var personas bundle.Personas
	if err := bundle.Load(*in, &personas); err != nil {
		slog.Error("Failed to read persona bundle", "path", *in, "error", err)

		return exitFailure
	}

	if err := personas.Validate(); err != nil {
		slog.Error("Invalid persona bundle", "error", err)

		return exitFailure
	}

	chat, err := pipeline.NewChatClient(cfg)
	if err != nil {
		slog.Error("Failed to create chat client", "error", err)

		return exitFailure
	}

	turns := cfg.InterviewTurns
	if personas.Turns > 0 {
		turns = personas.Turns
	}

	sim := interview.NewSimulator(chat, chat, interview.WithTurns(turns), interview.WithReasoning(*reasoning))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transcripts := make([]models.Transcript, len(personas.Personas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *parallel))

	for i, persona := range personas.Personas {
		g.Go(func() error {
			transcript, err := sim.Simulate(gctx, interview.Personas{
				Researcher: personas.Researcher,
				Respondent: persona,
			}, personas.ProductDescription)
			if err != nil {
				return err
			}

			transcripts[i] = transcript

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("Interview simulation failed", "error", err)

		return exitFailure
	}

	output := bundle.Analysis{
		ProductDescription:   personas.ProductDescription,
		UserGroupDescription: *userGroup,
		Transcripts:          transcripts,
	}

	if err := bundle.WriteJSON(*out, output); err != nil {
		slog.Error("Failed to write transcripts", "error", err)

		return exitFailure
	}

	slog.Info("simulate-interviews: done", "interviews", len(transcripts), "turns", turns)

	return exitSuccess
}
