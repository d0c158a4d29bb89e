// Package personas asks a language model for persona archetypes of a user group and expands
// each archetype into a concrete respondent for interview simulation.
package personas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/formbricks/insights/internal/llm"
	"github.com/formbricks/insights/internal/markup"
	"github.com/formbricks/insights/internal/models"
)

// DefaultCount is the number of archetypes requested when none is configured.
const DefaultCount = 7

var (
	// ErrMissingDescription is wrapped by ParseError when an archetype block has no
	// "Description:" line.
	ErrMissingDescription = errors.New("missing Description: line")
	// ErrEmptyReply is wrapped by ParseError when a reply carries no usable text.
	ErrEmptyReply = errors.New("empty reply")
	// ErrNoPersonas is returned by Generate when every persona reply failed to parse.
	ErrNoPersonas = errors.New("personas: no persona could be generated")
)

// ParseError is returned when one item of a model response cannot be parsed. Item names it,
// for example "archetype-3" or "persona Budget Hawk".
type ParseError struct {
	Item string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "personas: " + e.Item + " response: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Context carries the descriptions every prompt is built from.
type Context struct {
	ProductDescription   string
	UserGroupDescription string
}

// Archetype is a category of users, not a specific person.
type Archetype struct {
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type field struct {
	Tag   string
	Label string
}

// profileFields are the tagged sections of a persona reply, in output order.
var profileFields = []field{
	{"name", "Name"},
	{"age", "Age"},
	{"demographics", "Demographics"},
	{"location", "Location"},
	{"motivations", "Motivations"},
	{"goals_needs", "Goals and needs"},
	{"values", "Values"},
	{"attitudes_beliefs", "Attitudes and beliefs"},
	{"lifestyle", "Lifestyle"},
	{"daily_routine", "Daily routine"},
	{"device_usage", "Device usage"},
	{"software_familiarity", "Software familiarity"},
	{"digital_literacy", "Digital literacy"},
	{"pain_points", "Pain points"},
	{"delightful_moments", "Delightful moments"},
}

// Option configures a Generator.
type Option func(*Generator)

// WithCount sets the number of archetypes requested. Values below 1 are ignored.
func WithCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// Generator produces archetypes and personas with one prompt per item.
type Generator struct {
	model llm.Completer
	count int
}

// NewGenerator creates a Generator.
func NewGenerator(model llm.Completer, opts ...Option) *Generator {
	g := &Generator{model: model, count: DefaultCount}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Archetypes asks for the configured number of archetypes and parses the numbered
// <archetype-N> blocks in order, stopping at the first number the reply does not contain.
// A reply with no block, an unclosed block or a block without a description yields a
// *ParseError naming the block.
func (g *Generator) Archetypes(ctx context.Context, rc Context) ([]Archetype, error) {
	prompt, err := archetypesPrompt(g.count, rc)
	if err != nil {
		return nil, fmt.Errorf("render archetypes prompt: %w", err)
	}

	reply, err := g.model.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var out []Archetype

	for i := 1; i <= g.count; i++ {
		tag := fmt.Sprintf("archetype-%d", i)
		if i > 1 && !strings.Contains(reply, "<"+tag+">") {
			break
		}

		block, err := markup.Extract(reply, tag)
		if err != nil {
			return nil, &ParseError{Item: tag, Err: err}
		}

		name, description, ok := strings.Cut(block, "Description:")
		if !ok {
			return nil, &ParseError{Item: tag, Err: ErrMissingDescription}
		}

		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "Name:"))
		if name == "" {
			return nil, &ParseError{Item: tag, Err: &markup.MissingTagError{Tag: "Name:"}}
		}

		out = append(out, Archetype{Name: name, Description: strings.TrimSpace(description)})
	}

	return out, nil
}

// Persona expands an archetype into a specific respondent whose name is not in existing.
// The <name> section is required; other missing sections are left out of the description.
func (g *Generator) Persona(ctx context.Context, a Archetype, existing []string, productDescription string) (models.Persona, error) {
	prompt, err := personaPrompt(a, existing, productDescription)
	if err != nil {
		return models.Persona{}, fmt.Errorf("render persona prompt: %w", err)
	}

	reply, err := g.model.Complete(ctx, prompt)
	if err != nil {
		return models.Persona{}, err
	}

	name, err := markup.Extract(reply, "name")
	if err != nil {
		return models.Persona{}, &ParseError{Item: "persona " + a.Name, Err: err}
	}

	if name == "" {
		return models.Persona{}, &ParseError{Item: "persona " + a.Name, Err: ErrEmptyReply}
	}

	lines := make([]string, 0, len(profileFields))
	for _, f := range profileFields {
		value, err := markup.Extract(reply, f.Tag)
		if err != nil || value == "" {
			continue
		}

		lines = append(lines, f.Label+": "+value)
	}

	return models.Persona{Name: name, Description: strings.Join(lines, "\n")}, nil
}

// Generate asks for archetypes and then for one persona per archetype, passing the names
// chosen so far so that every persona gets a distinct name. Personas whose reply cannot be
// parsed are skipped with a warning; ErrNoPersonas is returned when none remain.
func (g *Generator) Generate(ctx context.Context, rc Context) ([]Archetype, []models.Persona, error) {
	archetypes, err := g.Archetypes(ctx, rc)
	if err != nil {
		return nil, nil, err
	}

	var (
		out   []models.Persona
		names []string
	)

	for _, a := range archetypes {
		p, err := g.Persona(ctx, a, names, rc.ProductDescription)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				slog.WarnContext(ctx, "personas: persona skipped after parse failure",
					"archetype", a.Name, "error", err)

				continue
			}

			return nil, nil, err
		}

		out = append(out, p)
		names = append(names, p.Name)

		slog.DebugContext(ctx, "personas: persona generated", "archetype", a.Name, "persona", p.Name)
	}

	if len(out) == 0 {
		return nil, nil, ErrNoPersonas
	}

	slog.InfoContext(ctx, "personas: generation complete",
		"archetypes", len(archetypes), "personas", len(out))

	return archetypes, out, nil
}

// ProjectName asks for a short name for the research project.
func (g *Generator) ProjectName(ctx context.Context, rc Context) (string, error) {
	prompt, err := projectNamePrompt(rc)
	if err != nil {
		return "", fmt.Errorf("render project name prompt: %w", err)
	}

	reply, err := g.model.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(reply)
	name = strings.TrimSpace(strings.TrimPrefix(name, "Project name:"))
	name = strings.Trim(name, `"'`)

	if name == "" {
		return "", &ParseError{Item: "project name", Err: ErrEmptyReply}
	}

	return name, nil
}
