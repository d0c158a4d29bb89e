package sentences

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/insights/internal/models"
)

type recordingExtractor struct {
	calls []string
}

func (r *recordingExtractor) Split(text string) []string {
	r.calls = append(r.calls, text)

	return []string{text}
}

func TestPunkt_Split(t *testing.T) {
	p, err := NewPunkt()
	require.NoError(t, err)

	got := p.Split("I love the idea. Pricing worries me a lot! Would anyone agree?")
	assert.Equal(t, []string{
		"I love the idea.",
		"Pricing worries me a lot!",
		"Would anyone agree?",
	}, got)

	assert.Empty(t, p.Split("   "))
}

func TestRegex_Split(t *testing.T) {
	r := NewRegex()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"terminators", "One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"trailing fragment kept", "Done. and then", []string{"Done.", "and then"}},
		{"ellipsis stays attached", "Well... maybe.", []string{"Well...", "maybe."}},
		{"blank", " \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Split(tt.text))
		})
	}
}

func TestChunk(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"abc"}, Chunk("abc", 10))
	})

	t.Run("contiguous and non-overlapping", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 5) + "xyz"
		chunks := Chunk(text, 10)

		require.Len(t, chunks, 6)
		assert.Equal(t, text, strings.Join(chunks, ""))
		assert.Equal(t, "xyz", chunks[5])
	})

	t.Run("never splits a code point", func(t *testing.T) {
		text := strings.Repeat("é日", 7)
		chunks := Chunk(text, 3)

		assert.Equal(t, text, strings.Join(chunks, ""))
		for _, c := range chunks {
			assert.True(t, utf8.ValidString(c))
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 3)
		}
	})

	t.Run("non-positive limit disables chunking", func(t *testing.T) {
		assert.Equal(t, []string{"abcdef"}, Chunk("abcdef", 0))
	})
}

func TestChunked_Split(t *testing.T) {
	inner := &recordingExtractor{}
	c := &Chunked{Inner: inner, MaxChars: 4}

	got := c.Split("abcdefghij")

	assert.Equal(t, []string{"abcd", "efgh", "ij"}, inner.calls)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, got)
}

func TestNew(t *testing.T) {
	ex, err := New("regex", 0)
	require.NoError(t, err)

	chunked, ok := ex.(*Chunked)
	require.True(t, ok)
	assert.Equal(t, DefaultChunkChars, chunked.MaxChars)

	_, err = New("spacy", 100)
	assert.Error(t, err)
}

func TestFromTranscripts(t *testing.T) {
	transcripts := []models.Transcript{
		{Turns: []models.Turn{
			{Researcher: "What do you think? Be honest.", User: "I love the idea. It is neat."},
			{Researcher: "Anything else?", User: "   "},
		}},
		{Turns: []models.Turn{
			{Researcher: "And pricing?", User: "Pricing worries me."},
		}},
	}

	got := FromTranscripts(NewRegex(), transcripts...)

	assert.Equal(t, []string{"I love the idea.", "It is neat.", "Pricing worries me."}, got)
	assert.Empty(t, FromTranscripts(NewRegex()))
}
