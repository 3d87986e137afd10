package detector

import (
	"fmt"
	"strings"

	"ai-coparenting-be/pkg/safety"
)

const (
	// evidenceWindow is how many characters of surrounding text are kept
	// around a match for human review.
	evidenceWindow = 24

	// toneMinWords is the minimum text length before the aggregate tone
	// check applies; short replies are too noisy to rate.
	toneMinWords = 20

	// toneRatioLimit is the negative-word ratio above which a single
	// negative-tone finding is emitted.
	toneRatioLimit = 0.2
)

// Detector scans raw text against the static pattern rule table.
// Scan is pure and deterministic: identical input yields identical
// findings in identical order.
type Detector struct {
	rules     []ruleSet
	toneWords []string
}

// NewDetector creates a detector with the default rule table
func NewDetector() *Detector {
	return &Detector{
		rules:     defaultRules,
		toneWords: negativeToneWords,
	}
}

// Scan returns all pattern findings for the given text.
// Matching runs on the lower-cased text; evidence spans are clipped to
// text bounds.
func (d *Detector) Scan(text string) []safety.Finding {
	lowered := strings.ToLower(text)

	var findings []safety.Finding
	for _, rule := range d.rules {
		for _, pattern := range rule.Patterns {
			for _, loc := range pattern.FindAllStringIndex(lowered, -1) {
				findings = append(findings, safety.Finding{
					Category: rule.Category,
					Severity: rule.Severity,
					Evidence: extractEvidence(lowered, loc[0], loc[1]),
					Message:  rule.Message,
					Source:   safety.SourcePattern,
				})
			}
		}
	}

	if tone, ok := d.checkTone(lowered); ok {
		findings = append(findings, tone)
	}

	return findings
}

// checkTone computes the aggregate negativity ratio: negative keyword hits
// over total word count. One finding describes the ratio; individual words
// are not reported.
func (d *Detector) checkTone(lowered string) (safety.Finding, bool) {
	words := strings.Fields(lowered)
	if len(words) < toneMinWords {
		return safety.Finding{}, false
	}

	hits := 0
	for _, w := range words {
		trimmed := strings.Trim(w, ".,!?;:()\"'«»—-")
		for _, neg := range d.toneWords {
			if trimmed == neg {
				hits++
				break
			}
		}
	}

	ratio := float64(hits) / float64(len(words))
	if ratio <= toneRatioLimit {
		return safety.Finding{}, false
	}

	return safety.Finding{
		Category: safety.CategoryNegativeTone,
		Severity: safety.SeverityMedium,
		Evidence: fmt.Sprintf("%d of %d words are negative (%.0f%%)", hits, len(words), ratio*100),
		Message:  "Общий тон текста негативный",
		Source:   safety.SourcePattern,
	}, true
}

func extractEvidence(text string, start, end int) string {
	from := start - evidenceWindow
	if from < 0 {
		from = 0
	}
	to := end + evidenceWindow
	if to > len(text) {
		to = len(text)
	}
	// Clip to rune boundaries so the window never splits a multibyte char
	for from > 0 && !isRuneStart(text[from]) {
		from--
	}
	for to < len(text) && !isRuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
