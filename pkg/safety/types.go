package safety

// Category classifies a safety finding
type Category string

const (
	CategoryInsult       Category = "insult"
	CategoryThreat       Category = "threat"
	CategoryBlame        Category = "blame"
	CategoryManipulation Category = "manipulation"
	CategoryPressure     Category = "pressure"
	CategoryViolence     Category = "violence"
	CategoryPersonalInfo Category = "personal-information-exposure"
	CategoryAdultTopic   Category = "adult-topic-exposure"
	CategoryNegativeTone Category = "negative-tone"
)

// Severity is the ordered risk level of a single finding
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Source identifies which analyzer produced a finding
type Source string

const (
	SourcePattern    Source = "pattern"
	SourceClassifier Source = "classifier"
	SourceReviewer   Source = "reviewer"
)

// Finding is one located, categorized safety signal
type Finding struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Evidence string   `json:"evidence"` // matched span with surrounding context, display only
	Message  string   `json:"message"`
	Source   Source   `json:"source"`
}

// Verdict is the aggregated safety decision for a piece of text
type Verdict struct {
	OverallScore      float64   `json:"overall_score"` // 0.0 - 1.0
	IsBlocking        bool      `json:"is_blocking"`
	Findings          []Finding `json:"findings"`
	Rationale         string    `json:"rationale,omitempty"`          // reviewer output
	RewriteSuggestion string    `json:"rewrite_suggestion,omitempty"` // reviewer output
}

// SeverityWeight maps a severity to its contribution to the overall score.
// A single critical pattern match blocks regardless of classifier scores.
func SeverityWeight(s Severity) float64 {
	switch s {
	case SeverityLow:
		return 0.25
	case SeverityMedium:
		return 0.5
	case SeverityHigh:
		return 0.75
	case SeverityCritical:
		return 1.0
	default:
		return 0
	}
}
