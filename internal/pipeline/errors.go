package pipeline

import "fmt"

// Stage names used in StageError, spans, logs and metrics.
const (
	StageExtract   = "extract"
	StageEmbed     = "embed"
	StageCluster   = "cluster"
	StageSummarize = "summarize"
)

// StageError labels the pipeline stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
