package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/insights/internal/api/response"
	"github.com/formbricks/insights/internal/api/validation"
	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/interview"
	"github.com/formbricks/insights/internal/models"
)

// InterviewSimulator runs one simulated interview.
type InterviewSimulator interface {
	SimulateTurns(ctx context.Context, p interview.Personas, product string, turns int) (models.Transcript, error)
}

// SimulateInterviewRequest is the body of POST /v1/interviews/simulate.
// Turns of zero uses the server default.
//
//nolint:tagliatelle // API contract camelCase
type SimulateInterviewRequest struct {
	PersonaName           string `json:"personaName"                     validate:"required,no_null_bytes,max=255"`
	PersonaDescription    string `json:"personaDescription"              validate:"required,no_null_bytes,max=10000"`
	ProductDescription    string `json:"productDescription"              validate:"required,no_null_bytes,max=10000"`
	ResearcherName        string `json:"researcherName,omitempty"        validate:"required_with=ResearcherDescription,no_null_bytes,max=255"`
	ResearcherDescription string `json:"researcherDescription,omitempty" validate:"required_with=ResearcherName,no_null_bytes,max=10000"`
	Turns                 int    `json:"turns,omitempty"                 validate:"min=0,max=50"`
}

// InterviewsHandler handles HTTP requests for interview simulation.
type InterviewsHandler struct {
	simulator InterviewSimulator
}

// NewInterviewsHandler creates a new interviews handler.
func NewInterviewsHandler(simulator InterviewSimulator) *InterviewsHandler {
	return &InterviewsHandler{simulator: simulator}
}

// Simulate handles POST /v1/interviews/simulate
// @Summary Simulate a user interview
// @Description Runs a researcher persona against a respondent persona and returns the transcript.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param request body SimulateInterviewRequest true "Personas and product"
// @Success 200 {object} models.Transcript
// @Failure 400 {object} response.ProblemDetails
// @Failure 401 {object} response.ProblemDetails "Unauthorized - Invalid or missing API key"
// @Failure 502 {object} response.ProblemDetails "Language model service failed"
// @Security BearerAuth
// @Router /v1/interviews/simulate [post]
func (h *InterviewsHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateInterviewRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	personas := interview.Personas{
		Respondent: models.Persona{Name: req.PersonaName, Description: req.PersonaDescription},
	}
	if req.ResearcherName != "" {
		personas.Researcher = &models.Persona{Name: req.ResearcherName, Description: req.ResearcherDescription}
	}

	transcript, err := h.simulator.SimulateTurns(r.Context(), personas, req.ProductDescription, req.Turns)
	if err != nil {
		switch {
		case errors.Is(err, insighterrors.ErrService):
			response.RespondError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			response.RespondError(w, http.StatusGatewayTimeout, "Gateway Timeout", err.Error())
		default:
			slog.ErrorContext(r.Context(), "interviews: simulation failed", "persona", req.PersonaName, "error", err)
			response.RespondInternalServerError(w, "interview simulation failed")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, transcript)
}
