// Command generate-personas asks the language model for persona archetypes of a user group,
// expands each into a specific persona and writes a persona bundle for simulate-interviews.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/formbricks/insights/internal/bundle"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/personas"
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
	fs := flag.NewFlagSet("generate-personas", flag.ContinueOnError)
	product := fs.String("product", "", "product description (required)")
	userGroup := fs.String("user-group", "", "user group description (required)")
	count := fs.Int("count", personas.DefaultCount, "persona archetypes to request")
	turns := fs.Int("turns", 0, "interview turns stored in the bundle (0 keeps INTERVIEW_TURNS)")
	name := fs.Bool("name", false, "also ask for a project name")
	out := fs.String("out", "", "output file (default stdout)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}

	if strings.TrimSpace(*product) == "" || strings.TrimSpace(*userGroup) == "" {
		slog.Error("Both -product and -user-group are required")

		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	observability.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	chat, err := pipeline.NewChatClient(cfg)
	if err != nil {
		slog.Error("Failed to create chat client", "error", err)

		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := personas.Context{ProductDescription: *product, UserGroupDescription: *userGroup}
	gen := personas.NewGenerator(chat, personas.WithCount(*count))

	archetypes, generated, err := gen.Generate(ctx, rc)
	if err != nil {
		slog.Error("Persona generation failed", "error", err)

		return exitFailure
	}

	output := bundle.Personas{
		ProductDescription: *product,
		Personas:           generated,
		Turns:              max(0, *turns),
	}

	if *name {
		output.ProjectName, err = gen.ProjectName(ctx, rc)
		if err != nil {
			slog.Error("Project name generation failed", "error", err)

			return exitFailure
		}
	}

	if err := output.Validate(); err != nil {
		slog.Error("Generated bundle is invalid", "error", err)

		return exitFailure
	}

	if err := bundle.WriteJSON(*out, output); err != nil {
		slog.Error("Failed to write persona bundle", "error", err)

		return exitFailure
	}

	slog.Info("generate-personas: done", "archetypes", len(archetypes), "personas", len(generated))

	return exitSuccess
}
