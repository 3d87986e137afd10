package pipeline

import (
	"context"
	"errors"
	"log"
	"testing"

	"ai-coparenting-be/pkg/safety"
	"ai-coparenting-be/pkg/safety/detector"
	"ai-coparenting-be/pkg/safety/reviewer"

	"github.com/stretchr/testify/assert"
)

type fakeScanner struct {
	findings []safety.Finding
}

func (f *fakeScanner) Scan(text string) []safety.Finding {
	return f.findings
}

type fakeClassifier struct {
	available bool
	scores    map[safety.Category]float64
	err       error
}

func (f *fakeClassifier) Available() bool {
	return f.available
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (map[safety.Category]float64, error) {
	return f.scores, f.err
}

type fakeReviewer struct {
	available bool
	review    *reviewer.Review
	err       error
	calls     int
}

func (f *fakeReviewer) Available() bool {
	return f.available
}

func (f *fakeReviewer) Review(ctx context.Context, text string, findings []safety.Finding) (*reviewer.Review, error) {
	f.calls++
	return f.review, f.err
}

func TestEvaluateInsultBlocks(t *testing.T) {
	// Real detector, no classifier, no reviewer: the hybrid gate must
	// block on patterns alone.
	p := NewPipeline(detector.NewDetector(), nil, nil, log.Default())

	verdict := p.Evaluate(context.Background(), "ты сволочь", 0.30, false)

	assert.True(t, verdict.IsBlocking)
	assert.Equal(t, 1.0, verdict.OverallScore)
	assert.NotEmpty(t, verdict.Findings)
	assert.Equal(t, safety.CategoryInsult, verdict.Findings[0].Category)
}

func TestEvaluateNeutralRequestPasses(t *testing.T) {
	p := NewPipeline(detector.NewDetector(), nil, nil, log.Default())

	verdict := p.Evaluate(context.Background(),
		"Планирую забрать ребёнка в субботу в 10:00, прошу подтвердить.", 0.30, false)

	assert.False(t, verdict.IsBlocking)
	assert.Equal(t, 0.0, verdict.OverallScore)
	assert.Empty(t, verdict.Findings)
}

func TestEvaluateWorstSignalWins(t *testing.T) {
	tests := []struct {
		name       string
		findings   []safety.Finding
		classifier *fakeClassifier
		threshold  float64
		wantScore  float64
		wantBlock  bool
	}{
		{
			name:       "pattern dominates weak classifier",
			findings:   []safety.Finding{{Category: safety.CategoryThreat, Severity: safety.SeverityCritical}},
			classifier: &fakeClassifier{available: true, scores: map[safety.Category]float64{safety.CategoryInsult: 0.1}},
			threshold:  0.30,
			wantScore:  1.0,
			wantBlock:  true,
		},
		{
			name:       "classifier dominates clean patterns",
			findings:   nil,
			classifier: &fakeClassifier{available: true, scores: map[safety.Category]float64{safety.CategoryInsult: 0.8}},
			threshold:  0.30,
			wantScore:  0.8,
			wantBlock:  true,
		},
		{
			name:       "medium pattern below letter threshold stays open",
			findings:   []safety.Finding{{Category: safety.CategoryAdultTopic, Severity: safety.SeverityLow}},
			classifier: &fakeClassifier{available: true, scores: map[safety.Category]float64{}},
			threshold:  0.30,
			wantScore:  0.25,
			wantBlock:  false,
		},
		{
			name:       "same signal blocks at the stricter quest threshold",
			findings:   []safety.Finding{{Category: safety.CategoryAdultTopic, Severity: safety.SeverityLow}},
			classifier: &fakeClassifier{available: true, scores: map[safety.Category]float64{}},
			threshold:  0.25,
			wantScore:  0.25,
			wantBlock:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&fakeScanner{findings: tt.findings}, tt.classifier, nil, log.Default())
			verdict := p.Evaluate(context.Background(), "text", tt.threshold, false)

			assert.Equal(t, tt.wantScore, verdict.OverallScore)
			assert.Equal(t, tt.wantBlock, verdict.IsBlocking)
		})
	}
}

func TestEvaluateClassifierFailureDegrades(t *testing.T) {
	classifier := &fakeClassifier{available: true, err: errors.New("connection refused")}
	p := NewPipeline(&fakeScanner{}, classifier, nil, log.Default())

	verdict := p.Evaluate(context.Background(), "обычный текст", 0.30, false)

	assert.False(t, verdict.IsBlocking)
	assert.Equal(t, 0.0, verdict.OverallScore)
}

func TestEvaluateClassifierAppendsFindings(t *testing.T) {
	classifier := &fakeClassifier{
		available: true,
		scores:    map[safety.Category]float64{safety.CategoryManipulation: 0.92},
	}
	p := NewPipeline(&fakeScanner{}, classifier, nil, log.Default())

	verdict := p.Evaluate(context.Background(), "text", 0.30, false)

	assert.Len(t, verdict.Findings, 1)
	assert.Equal(t, safety.SourceClassifier, verdict.Findings[0].Source)
	assert.Equal(t, safety.SeverityCritical, verdict.Findings[0].Severity)
}

func TestEvaluateClassifierFindingOrderStable(t *testing.T) {
	classifier := &fakeClassifier{
		available: true,
		scores: map[safety.Category]float64{
			safety.CategoryInsult:       0.91,
			safety.CategoryThreat:       0.88,
			safety.CategoryManipulation: 0.72,
			safety.CategoryNegativeTone: 0.65,
		},
	}
	p := NewPipeline(&fakeScanner{}, classifier, nil, log.Default())

	first := p.Evaluate(context.Background(), "text", 0.30, false)
	assert.Len(t, first.Findings, 4)

	for i := 0; i < 50; i++ {
		verdict := p.Evaluate(context.Background(), "text", 0.30, false)
		assert.Equal(t, first.Findings, verdict.Findings, "run %d", i)
	}
}

func TestEvaluateReviewerEnriches(t *testing.T) {
	rev := &fakeReviewer{
		available: true,
		review:    &reviewer.Review{Rationale: "почему это рискованно", Rewrite: "мягкий вариант"},
	}
	scanner := &fakeScanner{findings: []safety.Finding{{Category: safety.CategoryInsult, Severity: safety.SeverityCritical}}}
	p := NewPipeline(scanner, nil, rev, log.Default())

	verdict := p.Evaluate(context.Background(), "text", 0.30, true)

	assert.True(t, verdict.IsBlocking)
	assert.Equal(t, "почему это рискованно", verdict.Rationale)
	assert.Equal(t, "мягкий вариант", verdict.RewriteSuggestion)
}

func TestEvaluateReviewerFailureKeepsVerdict(t *testing.T) {
	rev := &fakeReviewer{available: true, err: errors.New("model timeout")}
	scanner := &fakeScanner{findings: []safety.Finding{{Category: safety.CategoryInsult, Severity: safety.SeverityCritical}}}
	p := NewPipeline(scanner, nil, rev, log.Default())

	verdict := p.Evaluate(context.Background(), "text", 0.30, true)

	assert.True(t, verdict.IsBlocking)
	assert.Empty(t, verdict.Rationale)
	assert.Empty(t, verdict.RewriteSuggestion)
}

func TestEvaluateReviewerSkippedWhenNotBlocking(t *testing.T) {
	rev := &fakeReviewer{available: true, review: &reviewer.Review{Rationale: "x"}}
	p := NewPipeline(&fakeScanner{}, nil, rev, log.Default())

	verdict := p.Evaluate(context.Background(), "text", 0.30, true)

	assert.False(t, verdict.IsBlocking)
	assert.Zero(t, rev.calls)
}
