package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/insights/internal/api/response"
	"github.com/formbricks/insights/internal/api/validation"
	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/pipeline"
	"github.com/formbricks/insights/internal/themes"
)

// Analyzer runs theme discovery.
type Analyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// CreateAnalysisRequest is the body of POST /v1/analyses.
//
//nolint:tagliatelle // API contract camelCase
type CreateAnalysisRequest struct {
	Transcripts          []models.Transcript `json:"transcripts"          validate:"required,dive"`
	ProductDescription   string              `json:"productDescription"   validate:"no_null_bytes,max=10000"`
	UserGroupDescription string              `json:"userGroupDescription" validate:"no_null_bytes,max=10000"`
	Optimize             *bool               `json:"optimize,omitempty"`
}

// AnalysisQuery holds the optional query parameters of POST /v1/analyses.
// A query value wins over the body field.
type AnalysisQuery struct {
	Optimize *bool `form:"optimize"`
}

// AnalysisResponse is a finished analysis. Themes are keyed by cluster id.
//
//nolint:tagliatelle // API contract camelCase
type AnalysisResponse struct {
	RunID    string                      `json:"runId"`
	Themes   map[int]models.ThemeSummary `json:"themes"`
	Failures []themes.Failure            `json:"failures"`
	Stats    pipeline.Stats              `json:"stats"`
}

// AnalysesHandler handles HTTP requests for theme analyses.
type AnalysesHandler struct {
	analyzer Analyzer
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(analyzer Analyzer) *AnalysesHandler {
	return &AnalysesHandler{analyzer: analyzer}
}

// Create handles POST /v1/analyses
// @Summary Discover themes in interview transcripts
// @Description Runs sentence extraction, embedding, clustering and theme summarization synchronously.
// @Tags Analyses
// @Accept json
// @Produce json
// @Param optimize query bool false "Search the cluster count by silhouette score"
// @Param request body CreateAnalysisRequest true "Transcripts and research context"
// @Success 200 {object} AnalysisResponse
// @Failure 400 {object} response.ProblemDetails
// @Failure 401 {object} response.ProblemDetails "Unauthorized - Invalid or missing API key"
// @Failure 422 {object} response.ProblemDetails "A theme response could not be parsed"
// @Failure 502 {object} response.ProblemDetails "Embedding or language model service failed"
// @Security BearerAuth
// @Router /v1/analyses [post]
func (h *AnalysesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var query AnalysisQuery
	if err := validation.DecodeQueryParams(r, &query); err != nil {
		response.RespondBadRequest(w, "optimize must be a boolean")

		return
	}

	var req CreateAnalysisRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	optimize := req.Optimize
	if query.Optimize != nil {
		optimize = query.Optimize
	}

	result, err := h.analyzer.Analyze(r.Context(), pipeline.Input{
		Transcripts:          req.Transcripts,
		ProductDescription:   req.ProductDescription,
		UserGroupDescription: req.UserGroupDescription,
		Optimize:             optimize,
	})
	if err != nil {
		respondPipelineError(r.Context(), w, err)

		return
	}

	found := result.Themes
	if found == nil {
		found = map[int]models.ThemeSummary{}
	}

	failures := result.Failures
	if failures == nil {
		failures = []themes.Failure{}
	}

	response.RespondJSON(w, http.StatusOK, AnalysisResponse{
		RunID:    result.RunID,
		Themes:   found,
		Failures: failures,
		Stats:    result.Stats,
	})
}

// respondPipelineError maps a failed run to a Problem Details response naming the stage.
func respondPipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	problem := response.ProblemDetails{Detail: err.Error()}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		problem.Stage = stageErr.Stage
	}

	var parseErr *themes.ParseError

	switch {
	case errors.Is(err, insighterrors.ErrValidation):
		problem.Status, problem.Title = http.StatusBadRequest, "Bad Request"
	case errors.As(err, &parseErr):
		problem.Status, problem.Title = http.StatusUnprocessableEntity, "Unprocessable Entity"
	case errors.Is(err, insighterrors.ErrService):
		problem.Status, problem.Title = http.StatusBadGateway, "Bad Gateway"
	case errors.Is(err, context.DeadlineExceeded):
		problem.Status, problem.Title = http.StatusGatewayTimeout, "Gateway Timeout"
	default:
		slog.ErrorContext(ctx, "analyses: run failed", "stage", problem.Stage, "error", err)

		problem.Status, problem.Title = http.StatusInternalServerError, "Internal Server Error"
		problem.Detail = "analysis failed"
	}

	response.RespondProblem(w, problem)
}
