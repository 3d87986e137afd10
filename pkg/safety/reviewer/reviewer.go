package reviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-coparenting-be/pkg/llm"
	"ai-coparenting-be/pkg/safety"
)

// Review is the structured output of the generative reviewer
type Review struct {
	Rationale string `json:"rationale"`
	Rewrite   string `json:"rewrite"`
}

// Reviewer asks a generative model to explain detected risk in human terms
// and to propose a safer rewrite. It is an enrichment step only: it runs
// after the blocking decision and its failure never changes the verdict.
type Reviewer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewReviewer(llmProvider llm.LLMProvider, logger *log.Logger) *Reviewer {
	return &Reviewer{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Available reports whether a generative model is wired in
func (r *Reviewer) Available() bool {
	return r != nil && r.llmProvider != nil
}

// Review produces a rationale and a suggested rewrite for flagged text
func (r *Reviewer) Review(ctx context.Context, text string, findings []safety.Finding) (*Review, error) {
	if !r.Available() {
		return nil, fmt.Errorf("reviewer is not configured")
	}

	prompt := r.buildPrompt(text, findings)

	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		r.logger.Printf("[REVIEWER] Generation failed: %v", err)
		return nil, err
	}

	review, err := parseReview(response)
	if err != nil {
		r.logger.Printf("[REVIEWER] Parsing failed: %v", err)
		return nil, err
	}

	return review, nil
}

func (r *Reviewer) buildPrompt(text string, findings []safety.Finding) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You help a parent communicate safely with their co-parent and child.\n")
	prompt.WriteString("The text below was flagged by an automated safety check.\n")
	prompt.WriteString("Explain briefly and kindly why the flagged parts can hurt the reader,\n")
	prompt.WriteString("then propose a rewrite that keeps the author's intent but removes the harm.\n")
	prompt.WriteString("Answer in the language of the original text.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<text>\n")
	prompt.WriteString(text)
	prompt.WriteString("\n</text>\n\n")

	prompt.WriteString("<findings>\n")
	for _, f := range findings {
		prompt.WriteString(fmt.Sprintf("- %s (%s): %q\n", f.Category, f.Severity, f.Evidence))
	}
	prompt.WriteString("</findings>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"rationale\": \"why the flagged wording is harmful\",\n")
	prompt.WriteString("  \"rewrite\": \"full safer version of the text\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseReview(response string) (*Review, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var review Review
	if err := json.Unmarshal([]byte(jsonContent), &review); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	if review.Rationale == "" && review.Rewrite == "" {
		return nil, fmt.Errorf("reviewer returned an empty review")
	}

	return &review, nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
