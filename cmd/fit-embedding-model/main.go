// Command fit-embedding-model fits the local TF-IDF embedding model over the respondent
// sentences of a transcript bundle and stores it in a bbolt file for LOCAL_EMBEDDING_MODEL_PATH.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/formbricks/insights/internal/bundle"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/localembed"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/sentences"
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
	// Load .env for consistency with the other commands; no language-model key is needed here.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	fs := flag.NewFlagSet("fit-embedding-model", flag.ContinueOnError)
	in := fs.String("in", bundle.Stdin, "transcript bundle (.json, .yaml or - for stdin)")
	out := fs.String("out", os.Getenv("LOCAL_EMBEDDING_MODEL_PATH"), "model file to write")
	maxFeatures := fs.Int("max-features", localembed.DefaultMaxFeatures, "vocabulary size limit")
	segmenter := fs.String("segmenter", config.SegmenterPunkt, "sentence segmenter (punkt or regex)")
	chunkChars := fs.Int("chunk-chars", sentences.DefaultChunkChars, "largest text block handed to the segmenter")
	logLevel := fs.String("log-level", os.Getenv("LOG_LEVEL"), "log level")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}

	observability.SetupLogging(os.Stderr, *logLevel, os.Getenv("LOG_FORMAT"))

	if *out == "" {
		slog.Error("-out (or LOCAL_EMBEDDING_MODEL_PATH) is required")

		return exitUsage
	}

	var input bundle.Analysis
	if err := bundle.Load(*in, &input); err != nil {
		slog.Error("Failed to read transcript bundle", "path", *in, "error", err)

		return exitFailure
	}

	extractor, err := sentences.New(*segmenter, *chunkChars)
	if err != nil {
		slog.Error("Failed to create sentence extractor", "error", err)

		return exitFailure
	}

	corpus := sentences.FromTranscripts(extractor, input.Transcripts...)

	model, err := localembed.Fit(corpus, *maxFeatures)
	if err != nil {
		slog.Error("Failed to fit model", "sentences", len(corpus), "error", err)

		return exitFailure
	}

	if err := localembed.Save(*out, model); err != nil {
		slog.Error("Failed to save model", "path", *out, "error", err)

		return exitFailure
	}

	slog.Info("fit-embedding-model: model saved",
		"path", *out,
		"sentences", len(corpus),
		"dimensions", model.Dimensions(),
	)

	return exitSuccess
}
