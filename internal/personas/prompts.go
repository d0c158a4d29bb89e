package personas

import (
	"strings"
	"text/template"
)

var archetypesTemplate = template.Must(template.New("archetypes").Parse(
	`Generate {{.Count}} persona archetypes based on:
User group: {{.UserGroupDescription}}
Product: {{.ProductDescription}}
Persona archetypes are not specific personas but categories of user personas that are distinct from each other
and can be used as building blocks for creating specific personas.

Format your output as:
<archetype-1>
Name: [Archetype name]
Description: [Archetype description]
</archetype-1>
...
<archetype-{{.Count}}>
Name: [Archetype name]
Description: [Archetype description]
</archetype-{{.Count}}>
`))

var personaTemplate = template.Must(template.New("persona").Parse(
	`Generate a specific user persona based on this archetype:
{{.Archetype.Name}}: {{.Archetype.Description}}

For the following general product description:
{{.ProductDescription}}

Create a clear, complete, and well-structured description of the persona with the following sections:
- Name: [Unique name of the persona. Ensure this name is not used for any other persona in this project.
  Existing persona names: {{.ExistingNames}}].
- Age: [Age of the persona].
- Demographics: [Demographics of the persona (e.g., gender, race, ethnicity)].
- Location: [The location of the persona].
- Motivations: [The motivations of the persona].
- Goals and needs: [The goals and needs of the persona].
- Values: [The values and aspirations of the persona].
- Attitudes and beliefs: [The attitudes and beliefs of the persona].
- Lifestyle: [The lifestyle of the persona].
- Daily routine: [The daily routine of the persona].
- Device usage: [The usage of technology by the persona].
- Software familiarity: [Their level of comfort with specific software or platforms]
- Digital literacy: [Confidence in navigating digital platforms and software]
- Pain points: [The pain points and concerns of the persona].
- Delightful moments: [The moments and experiences that bring the persona joy and satisfaction].

Respond in the following format:
{{range .Fields}}<{{.Tag}}> [{{.Label}}] </{{.Tag}}>
{{end}}`))

var projectNameTemplate = template.Must(template.New("project-name").Parse(
	`Generate a concise and modern project name based on:
User group: {{.UserGroupDescription}}
Product Type: {{.ProductDescription}}
Respond only with the project name.

Project name:
`))

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}

	return b.String(), nil
}

func archetypesPrompt(count int, rc Context) (string, error) {
	return render(archetypesTemplate, struct {
		Context
		Count int
	}{rc, count})
}

func personaPrompt(a Archetype, existing []string, productDescription string) (string, error) {
	names := strings.Join(existing, ", ")
	if names == "" {
		names = "none"
	}

	return render(personaTemplate, struct {
		Archetype          Archetype
		ProductDescription string
		ExistingNames      string
		Fields             []field
	}{a, productDescription, names, profileFields})
}

func projectNamePrompt(rc Context) (string, error) {
	return render(projectNameTemplate, rc)
}
