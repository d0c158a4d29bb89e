// Package sentences splits respondent utterances into sentences.
package sentences

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	punkt "github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/models"
)

// DefaultChunkChars is the largest text block handed to a segmenter in one piece.
const DefaultChunkChars = 10000

// ErrModelUnavailable is returned when the sentence boundary model cannot be loaded.
var ErrModelUnavailable = errors.New("sentence boundary model unavailable")

// Extractor splits a text block into sentences, in order.
type Extractor interface {
	Split(text string) []string
}

// Punkt segments English text with the pre-trained Punkt model.
type Punkt struct {
	tokenizer *punkt.DefaultSentenceTokenizer
}

// NewPunkt loads the English Punkt model.
func NewPunkt() (*Punkt, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	return &Punkt{tokenizer: tokenizer}, nil
}

// Split implements Extractor.
func (p *Punkt) Split(text string) []string {
	var out []string

	for _, s := range p.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Regex segments text on terminal punctuation. Text after the last terminator is kept
// as a final sentence.
type Regex struct {
	pattern *regexp.Regexp
}

// NewRegex returns a punctuation based splitter.
func NewRegex() *Regex {
	return &Regex{pattern: regexp.MustCompile(`[^.!?]+(?:[.!?]+["'”’)\]]*|$)`)}
}

// Split implements Extractor.
func (r *Regex) Split(text string) []string {
	var out []string

	for _, s := range r.pattern.FindAllString(text, -1) {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Chunked cuts blocks longer than MaxChars characters into contiguous slices before
// handing them to the inner extractor. A sentence crossing a cut comes back as two.
type Chunked struct {
	Inner    Extractor
	MaxChars int
}

// Split implements Extractor.
func (c *Chunked) Split(text string) []string {
	var out []string
	for _, part := range Chunk(text, c.MaxChars) {
		out = append(out, c.Inner.Split(part)...)
	}

	return out
}

// Chunk cuts text into slices of at most maxChars runes. Cuts never split a UTF-8
// sequence. maxChars <= 0 disables chunking.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var chunks []string

	start, count := 0, 0
	for i := range text {
		if count == maxChars {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}

	return append(chunks, text[start:])
}

// New builds the extractor selected by segmenter, wrapped in Chunked.
func New(segmenter string, chunkChars int) (Extractor, error) {
	var inner Extractor

	switch segmenter {
	case config.SegmenterPunkt, "":
		p, err := NewPunkt()
		if err != nil {
			return nil, err
		}

		inner = p
	case config.SegmenterRegex:
		inner = NewRegex()
	default:
		return nil, fmt.Errorf("unsupported sentence segmenter %q", segmenter)
	}

	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}

	return &Chunked{Inner: inner, MaxChars: chunkChars}, nil
}

// FromTranscripts returns the respondent sentences of all transcripts, in turn order.
func FromTranscripts(ex Extractor, transcripts ...models.Transcript) []string {
	var out []string

	for _, transcript := range transcripts {
		for _, turn := range transcript.Turns {
			if strings.TrimSpace(turn.User) == "" {
				continue
			}

			out = append(out, ex.Split(turn.User)...)
		}
	}

	return out
}
