package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		tag     string
		want    string
		wantTag string
	}{
		{
			name: "returns trimmed inner text",
			text: "<description> Users fear price hikes. </description>\n<theme> Pricing </theme>",
			tag:  "theme",
			want: "Pricing",
		},
		{
			name: "uses the first pair",
			text: "<theme>one</theme><theme>two</theme>",
			tag:  "theme",
			want: "one",
		},
		{
			name: "keeps inner newlines",
			text: "<sample_sentences>\n1. a\n2. b\n</sample_sentences>",
			tag:  "sample_sentences",
			want: "1. a\n2. b",
		},
		{
			name:    "missing opening tag",
			text:    "<description>x</description>",
			tag:     "theme",
			wantTag: "<theme>",
		},
		{
			name:    "missing closing tag",
			text:    "<theme>Pricing",
			tag:     "theme",
			wantTag: "</theme>",
		},
		{
			name:    "closing tag before opening tag",
			text:    "</theme> Pricing <theme>",
			tag:     "theme",
			wantTag: "</theme>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.text, tt.tag)
			if tt.wantTag == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				return
			}

			require.ErrorIs(t, err, ErrMissingTag)

			var mt *MissingTagError
			require.True(t, errors.As(err, &mt))
			assert.Equal(t, tt.wantTag, mt.Tag)
			assert.Empty(t, got)
		})
	}
}

func TestAfter(t *testing.T) {
	got, err := After("<thinking>step 1\nstep 2\nstep 3</thinking>  TRUE ", "thinking")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got)

	got, err = After("<thinking>a</thinking> FALSE <thinking>b</thinking> TRUE", "thinking")
	require.NoError(t, err)
	assert.Equal(t, "FALSE <thinking>b", got)

	_, err = After("<thinking>never closed TRUE", "thinking")
	assert.ErrorIs(t, err, ErrMissingTag)
	assert.EqualError(t, err, "markup: missing </thinking>")
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, "Hi there", Unwrap("<response> Hi there </response>", "response"))
	assert.Equal(t, "plain reply", Unwrap("  plain reply\n", "response"))
	assert.Equal(t, "<response>unterminated", Unwrap("<response>unterminated", "response"))
}
