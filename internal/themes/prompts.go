package themes

import (
	"strings"
	"text/template"
)

// Context carries the optional descriptions that frame every prompt.
// It never influences clustering.
type Context struct {
	ProductDescription   string
	UserGroupDescription string
}

var summarizeTemplate = template.Must(template.New("summarize").Parse(
	`You are looking at excerpts from transcripts of user interviews.
{{- if .ProductDescription}}
For the following product description: {{.ProductDescription}}
{{- end}}
{{- if .UserGroupDescription}}
And the following general user description: {{.UserGroupDescription}}
{{- end}}

The following sentences were clustered together across different user interviews.
Your task is to find a title and a description of a single theme that connects these sentences.

SENTENCES:
{{.Sentences}}

Provide only a concise but complete description of the theme with a summary of the content within these sentences,
the theme title, and 2-5 sample sentences from the list above that support your choice of theme and description.
Respond in the following format:

<description> your description and summary of the content here... </description>
<theme> your theme title here... </theme>
<sample_sentences>
1. [sample_sentence]
2. [sample_sentence]
...
</sample_sentences>
`))

var filterTemplate = template.Must(template.New("filter").Parse(
	`An automated analysis platform for user research interviews has discovered the following theme
and description based on a cluster of sentences from user interviews for a certain product and user group.

Theme: {{.Theme}}
Description: {{.Description}}
Product Description: {{.ProductDescription}}
User-group Description: {{.UserGroupDescription}}

Your task is to decide if this theme and description is relevant to the product and user group. For instance, some
themes may be about introductory sentences, polite exchanges, excited responses, or interjections that do not directly
relate to user research insights. Take at least 3-5 steps to reason through your answer, and more steps as needed.
Include all of your reasoning within <thinking> tags. Then answer with only TRUE if the theme is relevant or FALSE if
the theme is irrelevant. For example,

<thinking>Your reasoning here...</thinking> TRUE/FALSE
`))

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}

	return b.String(), nil
}

func summarizePrompt(sentences []string, rc Context) (string, error) {
	return render(summarizeTemplate, struct {
		Context
		Sentences string
	}{rc, strings.Join(sentences, "\n")})
}

func filterPrompt(theme, description string, rc Context) (string, error) {
	return render(filterTemplate, struct {
		Context
		Theme       string
		Description string
	}{rc, theme, description})
}
