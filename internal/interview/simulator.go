// Package interview simulates a user-research interview between two language-model personas.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/formbricks/insights/internal/llm"
	"github.com/formbricks/insights/internal/markup"
	"github.com/formbricks/insights/internal/models"
)

// DefaultTurns is the number of question/answer exchanges per interview.
const DefaultTurns = 5

// OpeningLine starts the researcher's conversation.
const OpeningLine = "Let's begin the interview."

// DefaultResearcher is used when no researcher persona is given.
func DefaultResearcher() models.Persona {
	return models.Persona{
		Name: "Roxy Buttons",
		Description: "You are an experienced user researcher specializing in identifying user needs and " +
			"understanding user behavior. Your goal is to ask thoughtful, open-ended questions that uncover the " +
			"user's motivations, challenges, and potential value propositions for using a product or service.",
	}
}

const reasoningInstructions = `

Before asking or answering questions, reason through the conversation so far and think about how you
would respond or continue the conversation based on your persona and characteristics.
Take 3-5 steps to reason but not much more. Once you are ready, then respond.

Format your output as:
<thinking>Your reasoning here...</thinking>
<response>Your response here...</response>`

// Personas are the two sides of an interview. A nil Researcher means DefaultResearcher.
type Personas struct {
	Researcher *models.Persona
	Respondent models.Persona
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithTurns sets the number of exchanges. Values below 1 are ignored.
func WithTurns(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.turns = n
		}
	}
}

// WithReasoning asks both personas to think in <thinking> before answering in <response>.
func WithReasoning(enabled bool) Option {
	return func(s *Simulator) { s.reasoning = enabled }
}

// Simulator runs interviews. Each side keeps its own conversation; every reply of one side
// becomes the next user message of the other.
type Simulator struct {
	researcher llm.ChatModel
	respondent llm.ChatModel
	turns      int
	reasoning  bool
}

// NewSimulator creates a Simulator. researcher and respondent may be the same model.
func NewSimulator(researcher, respondent llm.ChatModel, opts ...Option) *Simulator {
	s := &Simulator{researcher: researcher, respondent: respondent, turns: DefaultTurns}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Simulate runs one interview about product. Any model error aborts it.
func (s *Simulator) Simulate(ctx context.Context, p Personas, product string) (models.Transcript, error) {
	return s.SimulateTurns(ctx, p, product, s.turns)
}

// SimulateTurns is Simulate with an explicit number of exchanges. turns < 1 uses the
// configured count.
func (s *Simulator) SimulateTurns(ctx context.Context, p Personas, product string, turns int) (models.Transcript, error) {
	if turns < 1 {
		turns = s.turns
	}

	researcher := DefaultResearcher()
	if p.Researcher != nil {
		researcher = *p.Researcher
	}

	researcherConv := []llm.Message{
		llm.System(s.withReasoning(researcherPrompt(researcher, product))),
		llm.User(OpeningLine),
	}
	respondentConv := []llm.Message{
		llm.System(s.withReasoning(respondentPrompt(p.Respondent))),
	}

	start := time.Now()
	transcript := models.Transcript{Turns: make([]models.Turn, 0, turns)}

	for turn := range turns {
		reply, err := s.researcher.Chat(ctx, researcherConv)
		if err != nil {
			return models.Transcript{}, fmt.Errorf("researcher turn %d: %w", turn+1, err)
		}

		question := markup.Unwrap(reply, "response")
		researcherConv = append(researcherConv, llm.Assistant(question))
		respondentConv = append(respondentConv, llm.User(question))

		reply, err = s.respondent.Chat(ctx, respondentConv)
		if err != nil {
			return models.Transcript{}, fmt.Errorf("respondent turn %d: %w", turn+1, err)
		}

		answer := markup.Unwrap(reply, "response")
		respondentConv = append(respondentConv, llm.Assistant(answer))
		researcherConv = append(researcherConv, llm.User(answer))

		transcript.Turns = append(transcript.Turns, models.Turn{Researcher: question, User: answer})

		slog.DebugContext(ctx, "interview: turn complete", "persona", p.Respondent.Name, "turn", turn+1)
	}

	slog.InfoContext(ctx, "interview: simulation complete",
		"persona", p.Respondent.Name,
		"researcher", researcher.Name,
		"turns", len(transcript.Turns),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return transcript, nil
}

func (s *Simulator) withReasoning(prompt string) string {
	if !s.reasoning {
		return prompt
	}

	return prompt + reasoningInstructions
}

func researcherPrompt(p models.Persona, product string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the following persona:\nName: %s\nDescription: %s\n\n", p.Name, p.Description)
	fmt.Fprintf(&b, "You are currently gathering information and conducting interviews for a product focused on %s. ", product)
	b.WriteString("Your primary goal is to understand the value proposition of this product and explore the problem space " +
		"more completely. You are tasked with interviewing people who may be future users of this product.\n\n")
	b.WriteString("Understand how the user behaves today to solve the problems that this product may address. Also understand " +
		"how the product should be defined to meet other requirements or needs the user may have related to the problems " +
		"this product is targeted to address.\n\n")
	b.WriteString("You are interviewing someone right now.")

	return b.String()
}

func respondentPrompt(p models.Persona) string {
	return fmt.Sprintf("You are the following persona:\nName: %s\nDescription:\n%s\n\nYou are currently being interviewed by a user researcher.",
		p.Name, p.Description)
}
