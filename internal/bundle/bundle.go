// Package bundle reads the JSON or YAML input files of the command-line tools.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/models"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

// Analysis is a set of transcripts with the research context they were collected for.
//
//nolint:tagliatelle // file format camelCase
type Analysis struct {
	ProductDescription   string              `json:"productDescription"   yaml:"productDescription"`
	UserGroupDescription string              `json:"userGroupDescription" yaml:"userGroupDescription"`
	Transcripts          []models.Transcript `json:"transcripts"          yaml:"transcripts"`
}

// Personas lists the respondents to interview about one product. Researcher is optional.
//
//nolint:tagliatelle // file format camelCase
type Personas struct {
	ProjectName        string           `json:"projectName,omitempty" yaml:"projectName,omitempty"`
	ProductDescription string           `json:"productDescription"    yaml:"productDescription"`
	Researcher         *models.Persona  `json:"researcher,omitempty"  yaml:"researcher,omitempty"`
	Personas           []models.Persona `json:"personas"              yaml:"personas"`
	Turns              int              `json:"turns,omitempty"       yaml:"turns,omitempty"`
}

// Validate reports the first missing field.
func (p *Personas) Validate() error {
	if strings.TrimSpace(p.ProductDescription) == "" {
		return insighterrors.NewValidationError("productDescription", "productDescription is required")
	}

	if len(p.Personas) == 0 {
		return insighterrors.NewValidationError("personas", "at least one persona is required")
	}

	for i, persona := range p.Personas {
		if strings.TrimSpace(persona.Name) == "" {
			return insighterrors.NewValidationError("personas", fmt.Sprintf("personas[%d].name is required", i))
		}
	}

	if p.Turns < 0 {
		return insighterrors.NewValidationError("turns", "turns must not be negative")
	}

	return nil
}

// Load decodes the file at path into dst. Files ending in .yaml or .yml are read as YAML,
// everything else as JSON. Stdin is read as YAML, which also accepts JSON.
func Load(path string, dst any) error {
	if path == Stdin {
		return Decode(os.Stdin, true, dst)
	}

	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return insighterrors.NewNotFoundError("bundle", "bundle not found: "+path)
		}

		return fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))

	return Decode(f, ext == ".yaml" || ext == ".yml", dst)
}

// Decode reads one document from r. Unknown JSON fields are rejected.
func Decode(r io.Reader, asYAML bool, dst any) error {
	if asYAML {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)

		if err := dec.Decode(dst); err != nil {
			return insighterrors.NewValidationError("bundle", "decode yaml bundle: "+err.Error())
		}

		return nil
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return insighterrors.NewValidationError("bundle", "decode json bundle: "+err.Error())
	}

	return nil
}

// WriteJSON writes v as indented JSON to path, or to stdout when path is Stdin or empty.
func WriteJSON(path string, v any) error {
	out := io.Writer(os.Stdout)

	if path != "" && path != Stdin {
		f, err := os.Create(path) //nolint:gosec // path is an operator-supplied flag
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()

		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}
