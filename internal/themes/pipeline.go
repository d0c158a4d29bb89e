package themes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/llm"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/observability"
)

// DefaultConcurrency is the number of clusters summarized at once.
const DefaultConcurrency = 4

// Failure records a cluster excluded because a model reply could not be parsed.
type Failure struct {
	ClusterID int    `json:"clusterId"`
	Step      string `json:"step"`
	Reason    string `json:"reason"`
}

// Report is the outcome of summarizing and filtering every cluster.
type Report struct {
	Themes   map[int]models.ThemeSummary
	Rejected []int
	Failures []Failure
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Concurrency int
	// ParseFailure is config.ParseFailureSkip (default) or config.ParseFailureAbort.
	ParseFailure string
	Metrics      observability.PipelineMetrics
}

// Pipeline summarizes and filters clusters.
type Pipeline struct {
	summarizer *Summarizer
	filter     *Filter
	cfg        PipelineConfig
}

// NewPipeline creates a Pipeline that uses model for both the summary and the relevance verdict.
func NewPipeline(model llm.Completer, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if cfg.ParseFailure == "" {
		cfg.ParseFailure = config.ParseFailureSkip
	}

	return &Pipeline{
		summarizer: NewSummarizer(model),
		filter:     NewFilter(model),
		cfg:        cfg,
	}
}

// Run summarizes and filters every cluster. Service errors abort the run. Parse errors abort
// under the abort policy and otherwise exclude the cluster and are listed in Report.Failures.
// Rejected clusters are dropped from Report.Themes.
func (p *Pipeline) Run(ctx context.Context, clusters models.Clusters, rc Context) (*Report, error) {
	report := &Report{Themes: make(map[int]models.ThemeSummary, len(clusters))}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for id, sentences := range clusters {
		g.Go(func() error {
			summary, keep, err := p.process(gctx, sentences, rc)
			if err != nil {
				var perr *ParseError
				if !errors.As(err, &perr) || p.cfg.ParseFailure == config.ParseFailureAbort {
					return fmt.Errorf("cluster %d: %w", id, err)
				}

				slog.WarnContext(gctx, "themes: cluster excluded after parse failure",
					"cluster_id", id,
					"step", perr.Step,
					"error", err,
				)
				p.recordOutcome(gctx, observability.ThemeParseFailed)

				mu.Lock()
				report.Failures = append(report.Failures, Failure{ClusterID: id, Step: perr.Step, Reason: perr.Err.Error()})
				mu.Unlock()

				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			if !keep {
				slog.DebugContext(gctx, "themes: cluster rejected", "cluster_id", id, "theme", summary.Theme)
				p.recordOutcome(gctx, observability.ThemeRejected)
				report.Rejected = append(report.Rejected, id)

				return nil
			}

			p.recordOutcome(gctx, observability.ThemeKept)
			report.Themes[id] = summary

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(report.Rejected)
	slices.SortFunc(report.Failures, func(a, b Failure) int { return a.ClusterID - b.ClusterID })

	slog.InfoContext(ctx, "themes: clusters processed",
		"clusters", len(clusters),
		"kept", len(report.Themes),
		"rejected", len(report.Rejected),
		"parse_failures", len(report.Failures),
	)

	return report, nil
}

func (p *Pipeline) process(ctx context.Context, sentences []string, rc Context) (models.ThemeSummary, bool, error) {
	summary, err := p.summarizer.Summarize(ctx, sentences, rc)
	if err != nil {
		return models.ThemeSummary{}, false, err
	}

	keep, err := p.filter.Keep(ctx, summary, rc)
	if err != nil {
		return models.ThemeSummary{}, false, err
	}

	return summary, keep, nil
}

func (p *Pipeline) recordOutcome(ctx context.Context, outcome string) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordThemeOutcome(ctx, outcome)
	}
}
