package models

// Turn is one exchange of an interview: the researcher's prompt and the respondent's answer.
// Only User feeds theme discovery.
type Turn struct {
	Researcher string `json:"researcher" yaml:"researcher" validate:"no_null_bytes"`
	User       string `json:"user"       yaml:"user"       validate:"no_null_bytes"`
}

// Transcript is the ordered list of turns of one interview.
type Transcript struct {
	Turns []Turn `json:"turns" yaml:"turns" validate:"dive"`
}

// Persona describes one side of a simulated interview.
type Persona struct {
	Name        string `json:"name"        yaml:"name"        validate:"required,no_null_bytes,max=255"`
	Description string `json:"description" yaml:"description" validate:"required,no_null_bytes"`
}
