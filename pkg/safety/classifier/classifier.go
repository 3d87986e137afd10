package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-coparenting-be/pkg/safety"
)

// Classifier wraps a hosted toxicity scoring model behind an HTTP
// inference endpoint. It is an optional collaborator: when unconfigured or
// unreachable, Available returns false and callers continue without it.
type Classifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClassifier(baseURL, apiKey, model string) *Classifier {
	return &Classifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether the classifier can be called at all
func (c *Classifier) Available() bool {
	return c != nil && c.baseURL != "" && c.model != ""
}

// --- Request/Response structs (Internal to this package) ---

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// labelCategories maps model output labels to our category taxonomy.
// Unknown labels fall back to negative-tone so a novel label still counts.
var labelCategories = map[string]safety.Category{
	"insult":          safety.CategoryInsult,
	"threat":          safety.CategoryThreat,
	"toxicity":        safety.CategoryNegativeTone,
	"toxic":           safety.CategoryNegativeTone,
	"severe_toxicity": safety.CategoryViolence,
	"identity_attack": safety.CategoryInsult,
	"obscene":         safety.CategoryAdultTopic,
	"sexual_explicit": safety.CategoryAdultTopic,
}

// Classify returns per-category probability scores for the text.
// Scores are the maximum over all labels mapping to the same category.
func (c *Classifier) Classify(ctx context.Context, text string) (map[safety.Category]float64, error) {
	if !c.Available() {
		return nil, fmt.Errorf("classifier is not configured")
	}

	payload, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimRight(c.baseURL, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// Text-classification endpoints return [[{label, score}, ...]]
	var batches [][]labelScore
	if err := json.Unmarshal(bodyBytes, &batches); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("empty classifier response")
	}

	scores := make(map[safety.Category]float64)
	for _, ls := range batches[0] {
		category, ok := labelCategories[strings.ToLower(ls.Label)]
		if !ok {
			category = safety.CategoryNegativeTone
		}
		if ls.Score > scores[category] {
			scores[category] = ls.Score
		}
	}

	return scores, nil
}
