package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/markup"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/personas"
)

type mockPersonaGenerator struct {
	generateFunc func(ctx context.Context, rc personas.Context) ([]personas.Archetype, []models.Persona, error)
}

func (m *mockPersonaGenerator) Generate(
	ctx context.Context, rc personas.Context,
) ([]personas.Archetype, []models.Persona, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, rc)
	}

	return nil, nil, nil
}

func postPersonas(h *PersonasHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/personas", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	return rec
}

func TestPersonasHandler_Generate(t *testing.T) {
	const body = `{"productDescription": "budgeting", "userGroupDescription": "freelancers"}`

	t.Run("success returns archetypes and personas", func(t *testing.T) {
		var got personas.Context

		mock := &mockPersonaGenerator{
			generateFunc: func(_ context.Context, rc personas.Context) ([]personas.Archetype, []models.Persona, error) {
				got = rc

				return []personas.Archetype{{Name: "Budget Hawk", Description: "Tracks every cent."}},
					[]models.Persona{{Name: "Maya", Description: "Name: Maya\nAge: 34"}}, nil
			},
		}

		rec := postPersonas(NewPersonasHandler(mock), body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, personas.Context{ProductDescription: "budgeting", UserGroupDescription: "freelancers"}, got)

		var resp GeneratePersonasResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Personas, 1)
		assert.Equal(t, "Maya", resp.Personas[0].Name)
		assert.Equal(t, "Budget Hawk", resp.Archetypes[0].Name)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"missing product", `{"userGroupDescription": "u"}`},
			{"missing user group", `{"productDescription": "p"}`},
			{"malformed json", `{"productDescription": `},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := postPersonas(NewPersonasHandler(&mockPersonaGenerator{}), tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})

	failures := []struct {
		name string
		err  error
		want int
	}{
		{"service error", insighterrors.NewServiceError("llm", errors.New("rate limited")), http.StatusBadGateway},
		{"unparsable reply", &personas.ParseError{Item: "archetype-1", Err: &markup.MissingTagError{Tag: "<archetype-1>"}}, http.StatusBadGateway},
		{"no personas", personas.ErrNoPersonas, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockPersonaGenerator{
				generateFunc: func(context.Context, personas.Context) ([]personas.Archetype, []models.Persona, error) {
					return nil, nil, tt.err
				},
			}

			rec := postPersonas(NewPersonasHandler(mock), body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
