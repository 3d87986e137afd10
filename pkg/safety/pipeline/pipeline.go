package pipeline

import (
	"context"
	"log"
	"sort"

	"ai-coparenting-be/pkg/safety"
	"ai-coparenting-be/pkg/safety/reviewer"
)

// PatternScanner is the pure pattern detection stage
type PatternScanner interface {
	Scan(text string) []safety.Finding
}

// CategoryClassifier is the optional statistical scoring stage
type CategoryClassifier interface {
	Available() bool
	Classify(ctx context.Context, text string) (map[safety.Category]float64, error)
}

// RiskReviewer is the optional generative enrichment stage
type RiskReviewer interface {
	Available() bool
	Review(ctx context.Context, text string, findings []safety.Finding) (*reviewer.Review, error)
}

// Pipeline combines pattern detection, statistical classification and
// generative review into a single verdict. The pipeline itself is
// destination-agnostic: the caller supplies the blocking threshold.
type Pipeline struct {
	scanner    PatternScanner
	classifier CategoryClassifier
	reviewer   RiskReviewer
	logger     *log.Logger
}

func NewPipeline(scanner PatternScanner, classifier CategoryClassifier, riskReviewer RiskReviewer, logger *log.Logger) *Pipeline {
	return &Pipeline{
		scanner:    scanner,
		classifier: classifier,
		reviewer:   riskReviewer,
		logger:     logger,
	}
}

// Evaluate computes the safety verdict for text at the given threshold.
// It never fails: unavailable collaborators degrade to pattern-only
// analysis, and reviewer errors only skip the enrichment.
//
// The overall score is the worst signal, not an average: a single critical
// pattern match must block even when the classifier scores the text low.
func (p *Pipeline) Evaluate(ctx context.Context, text string, threshold float64, useReviewer bool) *safety.Verdict {
	findings := p.scanner.Scan(text)

	patternScore := 0.0
	for _, f := range findings {
		if w := safety.SeverityWeight(f.Severity); w > patternScore {
			patternScore = w
		}
	}

	classifierScore := 0.0
	if p.classifier != nil && p.classifier.Available() {
		scores, err := p.classifier.Classify(ctx, text)
		if err != nil {
			p.logger.Printf("[SAFETY] Classifier unavailable, continuing with patterns only: %v", err)
		} else {
			// Worst category dominates; several mild categories must not
			// dilute one severe signal. Categories are walked in sorted
			// order so identical text always yields findings in the same
			// order.
			categories := make([]safety.Category, 0, len(scores))
			for category := range scores {
				categories = append(categories, category)
			}
			sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
			for _, category := range categories {
				score := scores[category]
				if score > classifierScore {
					classifierScore = score
				}
				if score >= 0.5 {
					findings = append(findings, safety.Finding{
						Category: category,
						Severity: classifierSeverity(score),
						Evidence: truncate(text, 80),
						Message:  "Статистическая модель оценила текст как рискованный",
						Source:   safety.SourceClassifier,
					})
				}
			}
		}
	}

	overall := patternScore
	if classifierScore > overall {
		overall = classifierScore
	}

	verdict := &safety.Verdict{
		OverallScore: overall,
		IsBlocking:   overall >= threshold,
		Findings:     findings,
	}

	if verdict.IsBlocking && useReviewer && p.reviewer != nil && p.reviewer.Available() {
		review, err := p.reviewer.Review(ctx, text, findings)
		if err != nil {
			// Enrichment only: the blocking decision and findings stand.
			p.logger.Printf("[SAFETY] Reviewer failed, verdict kept as is: %v", err)
		} else {
			verdict.Rationale = review.Rationale
			verdict.RewriteSuggestion = review.Rewrite
		}
	}

	return verdict
}

func classifierSeverity(score float64) safety.Severity {
	switch {
	case score >= 0.9:
		return safety.SeverityCritical
	case score >= 0.75:
		return safety.SeverityHigh
	default:
		return safety.SeverityMedium
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
