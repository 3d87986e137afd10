package detector

import (
	"reflect"
	"testing"

	"ai-coparenting-be/pkg/safety"
)

func TestScanPatterns(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name         string
		text         string
		wantCategory safety.Category
		wantSeverity safety.Severity
	}{
		{
			name:         "russian insult",
			text:         "ты сволочь",
			wantCategory: safety.CategoryInsult,
			wantSeverity: safety.SeverityCritical,
		},
		{
			name:         "english insult",
			text:         "you are an idiot",
			wantCategory: safety.CategoryInsult,
			wantSeverity: safety.SeverityCritical,
		},
		{
			name:         "threat about the child",
			text:         "ты больше не увидишь ребёнка",
			wantCategory: safety.CategoryThreat,
			wantSeverity: safety.SeverityCritical,
		},
		{
			name:         "blame",
			text:         "это всё из-за тебя случилось",
			wantCategory: safety.CategoryBlame,
			wantSeverity: safety.SeverityCritical,
		},
		{
			name:         "pressure",
			text:         "Ответь немедленно",
			wantCategory: safety.CategoryPressure,
			wantSeverity: safety.SeverityHigh,
		},
		{
			name:         "phone number exposure",
			text:         "звони ему на +7 999 123-45-67",
			wantCategory: safety.CategoryPersonalInfo,
			wantSeverity: safety.SeverityHigh,
		},
		{
			name:         "adult topic for a child text",
			text:         "мы встретимся в суде из-за алиментов",
			wantCategory: safety.CategoryAdultTopic,
			wantSeverity: safety.SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := d.Scan(tt.text)
			if len(findings) == 0 {
				t.Fatalf("Scan(%q) = no findings, want at least one", tt.text)
			}

			found := false
			for _, f := range findings {
				if f.Category == tt.wantCategory {
					found = true
					if f.Severity != tt.wantSeverity {
						t.Errorf("Severity = %s, want %s", f.Severity, tt.wantSeverity)
					}
					if f.Source != safety.SourcePattern {
						t.Errorf("Source = %s, want %s", f.Source, safety.SourcePattern)
					}
					if f.Evidence == "" {
						t.Error("Evidence is empty")
					}
				}
			}
			if !found {
				t.Errorf("Scan(%q) has no %s finding", tt.text, tt.wantCategory)
			}
		})
	}
}

func TestScanCleanText(t *testing.T) {
	d := NewDetector()

	clean := []string{
		"Планирую забрать ребёнка в субботу в 10:00, прошу подтвердить.",
		"Спасибо, что привёз Машу вовремя.",
		"Can we swap the weekend? Please confirm.",
	}

	for _, text := range clean {
		if findings := d.Scan(text); len(findings) != 0 {
			t.Errorf("Scan(%q) = %v, want no findings", text, findings)
		}
	}
}

func TestScanDeterministic(t *testing.T) {
	d := NewDetector()
	text := "ты сволочь и идиот, это всё из-за тебя, отвечай немедленно"

	first := d.Scan(text)
	for i := 0; i < 5; i++ {
		again := d.Scan(text)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Scan is not deterministic: run %d differs", i)
		}
	}
}

func TestCheckTone(t *testing.T) {
	d := NewDetector()

	// 23 words, 5 negative: ratio ~0.22 is above the limit
	negative := "ненавижу эти разговоры это ужасно и плохо просто кошмар мне надоело всё это мы снова говорили вчера вечером очень долго и без толку"

	findings := d.Scan(negative)
	if len(findings) != 1 {
		t.Fatalf("Scan() = %d findings, want exactly the aggregate tone finding", len(findings))
	}
	f := findings[0]
	if f.Category != safety.CategoryNegativeTone {
		t.Errorf("Category = %s, want %s", f.Category, safety.CategoryNegativeTone)
	}
	if f.Severity != safety.SeverityMedium {
		t.Errorf("Severity = %s, want %s", f.Severity, safety.SeverityMedium)
	}
}

func TestCheckToneShortTextSkipped(t *testing.T) {
	d := NewDetector()

	// Every word is negative, but the text is shorter than the minimum
	if findings := d.Scan("ужасно плохо кошмар"); len(findings) != 0 {
		t.Errorf("Scan() = %v, want no findings for short text", findings)
	}
}

func TestExtractEvidenceWindow(t *testing.T) {
	text := "аааааааааааааааааааааааааааааа сволочь ббббббббббббббббббббббббббббб"
	d := NewDetector()

	findings := d.Scan(text)
	if len(findings) != 1 {
		t.Fatalf("Scan() = %d findings, want 1", len(findings))
	}

	evidence := findings[0].Evidence
	if evidence == "" {
		t.Fatal("Evidence is empty")
	}
	// The window is measured in bytes but must never split a multibyte rune
	for i, r := range evidence {
		if r == '�' {
			t.Errorf("Evidence has a broken rune at %d: %q", i, evidence)
		}
	}
}
