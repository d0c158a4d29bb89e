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
	"github.com/formbricks/insights/internal/personas"
)

// PersonaGenerator produces archetypes and one persona per archetype.
type PersonaGenerator interface {
	Generate(ctx context.Context, rc personas.Context) ([]personas.Archetype, []models.Persona, error)
}

// GeneratePersonasRequest is the body of POST /v1/personas.
//
//nolint:tagliatelle // API contract camelCase
type GeneratePersonasRequest struct {
	ProductDescription   string `json:"productDescription"   validate:"required,no_null_bytes,max=10000"`
	UserGroupDescription string `json:"userGroupDescription" validate:"required,no_null_bytes,max=10000"`
}

// GeneratePersonasResponse lists the archetypes and the personas built from them.
type GeneratePersonasResponse struct {
	Archetypes []personas.Archetype `json:"archetypes"`
	Personas   []models.Persona     `json:"personas"`
}

// PersonasHandler handles HTTP requests for persona generation.
type PersonasHandler struct {
	generator PersonaGenerator
}

// NewPersonasHandler creates a new personas handler.
func NewPersonasHandler(generator PersonaGenerator) *PersonasHandler {
	return &PersonasHandler{generator: generator}
}

// Generate handles POST /v1/personas
// @Summary Generate interview personas
// @Description Asks the language model for persona archetypes of a user group and one specific persona per archetype.
// @Tags Personas
// @Accept json
// @Produce json
// @Param request body GeneratePersonasRequest true "Product and user group"
// @Success 200 {object} GeneratePersonasResponse
// @Failure 400 {object} response.ProblemDetails
// @Failure 401 {object} response.ProblemDetails "Unauthorized - Invalid or missing API key"
// @Failure 502 {object} response.ProblemDetails "Language model service failed or answered in an unexpected format"
// @Security BearerAuth
// @Router /v1/personas [post]
func (h *PersonasHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GeneratePersonasRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	archetypes, generated, err := h.generator.Generate(r.Context(), personas.Context{
		ProductDescription:   req.ProductDescription,
		UserGroupDescription: req.UserGroupDescription,
	})
	if err != nil {
		var pe *personas.ParseError

		switch {
		case errors.Is(err, insighterrors.ErrService), errors.As(err, &pe), errors.Is(err, personas.ErrNoPersonas):
			response.RespondError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			response.RespondError(w, http.StatusGatewayTimeout, "Gateway Timeout", err.Error())
		default:
			slog.ErrorContext(r.Context(), "personas: generation failed", "error", err)
			response.RespondInternalServerError(w, "persona generation failed")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, GeneratePersonasResponse{Archetypes: archetypes, Personas: generated})
}
