package quest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ai-coparenting-be/pkg/llm"

	"gopkg.in/yaml.v3"
)

// ErrInvalidGraph marks structurally broken generator output. The caller
// treats it as a retryable generation failure, not a fatal error.
var ErrInvalidGraph = errors.New("generated quest graph is invalid")

// Fact is one structured input collected during intake
type Fact struct {
	Key   string
	Value string
}

// Generator produces a quest graph for a child from collected facts.
// The model answers in YAML which is parsed and validated before use.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Generate asks the model for a quest graph and validates the result.
// Malformed YAML or a broken graph returns ErrInvalidGraph.
func (g *Generator) Generate(ctx context.Context, facts []Fact) (*Graph, error) {
	prompt := g.buildPrompt(facts)

	response, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("quest generation failed: %w", err)
	}

	graph, err := Parse(response)
	if err != nil {
		g.logger.Printf("[QUEST] Rejected generator output: %v", err)
		return nil, err
	}

	return graph, nil
}

func (g *Generator) buildPrompt(facts []Fact) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You write short warm quests for a child, in the child's language.\n")
	prompt.WriteString("The quest is a small branching story with 3-5 scenes.\n")
	prompt.WriteString("Use the facts about the child to make it personal.\n")
	prompt.WriteString("Never mention adults' conflicts, court, money or other adult topics.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<facts>\n")
	for _, f := range facts {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", f.Key, f.Value))
	}
	prompt.WriteString("</facts>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid YAML:\n")
	prompt.WriteString("title: quest title\n")
	prompt.WriteString("intro: opening words for the child\n")
	prompt.WriteString("steps:\n")
	prompt.WriteString("  - id: start\n")
	prompt.WriteString("    text: scene text\n")
	prompt.WriteString("    choices:\n")
	prompt.WriteString("      - text: choice shown to the child\n")
	prompt.WriteString("        next: id of the next step\n")
	prompt.WriteString("  - id: finish\n")
	prompt.WriteString("    text: closing scene, no choices\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

// Parse extracts and validates a quest graph from raw model output.
// Code fences around the YAML are tolerated.
func Parse(response string) (*Graph, error) {
	cleaned := stripCodeFence(response)

	var graph Graph
	if err := yaml.Unmarshal([]byte(cleaned), &graph); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	if err := Validate(&graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

// Validate checks the structural invariants: a non-empty step list,
// unique step ids, every choice pointing at an existing step, and at
// least one terminal step so the quest can end.
func Validate(graph *Graph) error {
	if graph.Title == "" || len(graph.Steps) == 0 {
		return fmt.Errorf("%w: missing title or steps", ErrInvalidGraph)
	}

	ids := make(map[string]bool, len(graph.Steps))
	for _, step := range graph.Steps {
		if step.ID == "" || step.Text == "" {
			return fmt.Errorf("%w: step with empty id or text", ErrInvalidGraph)
		}
		if ids[step.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidGraph, step.ID)
		}
		ids[step.ID] = true
	}

	terminal := false
	for _, step := range graph.Steps {
		if len(step.Choices) == 0 {
			terminal = true
		}
		for _, choice := range step.Choices {
			if !ids[choice.Next] {
				return fmt.Errorf("%w: choice points at unknown step %q", ErrInvalidGraph, choice.Next)
			}
		}
	}
	if !terminal {
		return fmt.Errorf("%w: no terminal step", ErrInvalidGraph)
	}

	return nil
}

func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```yaml")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
