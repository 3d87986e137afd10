package style

import (
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name      string
		text      string
		want      map[Dimension]bool
		wantScore float64
	}{
		{
			name: "brief concrete cordial firm",
			text: "Планирую забрать ребёнка в субботу в 10:00, прошу подтвердить.",
			want: map[Dimension]bool{
				DimensionBrief:    true,
				DimensionConcrete: true,
				DimensionCordial:  true,
				DimensionFirm:     true,
			},
			wantScore: 1.0,
		},
		{
			name: "hostile and vague",
			text: "Ты обязана привезти ребёнка немедленно",
			want: map[Dimension]bool{
				DimensionBrief:    true,
				DimensionConcrete: false,
				DimensionCordial:  false,
				DimensionFirm:     false,
			},
			wantScore: 0.25,
		},
		{
			name: "english with a weekday",
			text: "I propose we meet on Saturday. Please confirm.",
			want: map[Dimension]bool{
				DimensionBrief:    true,
				DimensionConcrete: true,
				DimensionCordial:  true,
				DimensionFirm:     true,
			},
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := a.Analyze(tt.text)
			for dim, want := range tt.want {
				if got[dim] != want {
					t.Errorf("%s = %v, want %v", dim, got[dim], want)
				}
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestAnalyzeBriefLimits(t *testing.T) {
	a := NewAnalyzer()

	long := strings.Repeat("слово ", 61)
	got, _ := a.Analyze(long)
	if got[DimensionBrief] {
		t.Errorf("%d words rated brief", 61)
	}

	manySentences := "Раз. Два. Три. Четыре. Пять."
	got, _ = a.Analyze(manySentences)
	if got[DimensionBrief] {
		t.Error("5 sentences rated brief")
	}
}

func TestRewrite(t *testing.T) {
	a := NewAnalyzer()

	text := "Ты обязана привезти ребёнка немедленно"
	out := a.Rewrite(text)

	if strings.Contains(strings.ToLower(out), "ты обязана") {
		t.Errorf("Rewrite kept hostile wording: %q", out)
	}
	if strings.Contains(strings.ToLower(out), "немедленно") {
		t.Errorf("Rewrite kept pressure wording: %q", out)
	}

	got, _ := a.Analyze(out)
	if !got[DimensionCordial] {
		t.Errorf("rewritten text is not cordial: %q", out)
	}
	if !got[DimensionFirm] {
		t.Errorf("rewritten text is not firm: %q", out)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	a := NewAnalyzer()

	texts := []string{
		"Ты обязана привезти ребёнка немедленно",
		"Планирую забрать ребёнка в субботу в 10:00, прошу подтвердить.",
		"Давай обсудим расписание",
	}

	for _, text := range texts {
		once := a.Rewrite(text)
		twice := a.Rewrite(once)
		if once != twice {
			t.Errorf("Rewrite is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}
