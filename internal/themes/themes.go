// Package themes turns clusters into named themes and drops the ones a language model
// judges irrelevant to the product and user group.
package themes

import (
	"context"
	"fmt"
	"strings"

	"github.com/formbricks/insights/internal/llm"
	"github.com/formbricks/insights/internal/markup"
	"github.com/formbricks/insights/internal/models"
)

// Steps reported by ParseError and Failure.
const (
	StepSummarize = "summarize"
	StepFilter    = "filter"
)

// ParseError is returned when a model response lacks an expected delimiter.
// It wraps the underlying *markup.MissingTagError.
type ParseError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "themes: " + e.Step + " response: " + e.Err.Error()
}

// Unwrap returns the underlying markup error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Summarizer asks a model for the theme, description and sample sentences of one cluster.
type Summarizer struct {
	model llm.Completer
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(model llm.Completer) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize sends one prompt for sentences and parses the reply strictly. A missing
// description, theme or sample_sentences tag yields a *ParseError, never a partial summary.
func (s *Summarizer) Summarize(ctx context.Context, sentences []string, rc Context) (models.ThemeSummary, error) {
	prompt, err := summarizePrompt(sentences, rc)
	if err != nil {
		return models.ThemeSummary{}, fmt.Errorf("render summarize prompt: %w", err)
	}

	reply, err := s.model.Complete(ctx, prompt)
	if err != nil {
		return models.ThemeSummary{}, err
	}

	description, err := markup.Extract(reply, "description")
	if err != nil {
		return models.ThemeSummary{}, &ParseError{Step: StepSummarize, Err: err}
	}

	theme, err := markup.Extract(reply, "theme")
	if err != nil {
		return models.ThemeSummary{}, &ParseError{Step: StepSummarize, Err: err}
	}

	samples, err := markup.Extract(reply, "sample_sentences")
	if err != nil {
		return models.ThemeSummary{}, &ParseError{Step: StepSummarize, Err: err}
	}

	return models.ThemeSummary{
		Theme:           theme,
		Description:     description,
		SampleSentences: samples,
	}, nil
}

// Filter asks a model whether a summary is relevant to the product and user group.
type Filter struct {
	model llm.Completer
}

// NewFilter creates a Filter.
func NewFilter(model llm.Completer) *Filter {
	return &Filter{model: model}
}

// Keep returns the model's binary verdict: true when the text after </thinking>, up to a
// repeated </thinking>, contains TRUE in any case. A reply without </thinking> yields a
// *ParseError.
func (f *Filter) Keep(ctx context.Context, summary models.ThemeSummary, rc Context) (bool, error) {
	prompt, err := filterPrompt(summary.Theme, summary.Description, rc)
	if err != nil {
		return false, fmt.Errorf("render filter prompt: %w", err)
	}

	reply, err := f.model.Complete(ctx, prompt)
	if err != nil {
		return false, err
	}

	verdict, err := markup.After(reply, "thinking")
	if err != nil {
		return false, &ParseError{Step: StepFilter, Err: err}
	}

	return strings.Contains(strings.ToUpper(verdict), "TRUE"), nil
}
