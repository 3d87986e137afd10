package workflow

import (
	"testing"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOk bool
	}{
		{name: "trigger word", text: "Его зовут Миша", want: "Миша", wantOk: true},
		{name: "name is", text: "her name is Anna", want: "Anna", wantOk: true},
		{name: "single word reply", text: "Андрей", want: "Андрей", wantOk: true},
		{name: "single word with punctuation", text: "Миша!", want: "Миша", wantOk: true},
		{name: "long reply without trigger", text: "мы ездили летом на море", wantOk: false},
		{name: "command is not a name", text: "/cancel", wantOk: false},
		{name: "empty", text: "", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractName(tt.text)
			if ok != tt.wantOk {
				t.Fatalf("extractName(%q) ok = %v, want %v", tt.text, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("extractName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractAge(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOk bool
	}{
		{text: "Ему 7 лет", want: "7", wantOk: true},
		{text: "7", want: "7", wantOk: true},
		{text: "дочке 12", want: "12", wantOk: true},
		{text: "0 лет", wantOk: false},
		{text: "ему 18 лет", wantOk: false},
		{text: "скоро день рождения", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := extractAge(tt.text)
			if ok != tt.wantOk {
				t.Fatalf("extractAge(%q) ok = %v, want %v", tt.text, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("extractAge(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractFreeText(t *testing.T) {
	extract := extractFreeText(3)

	if _, ok := extract("мало слов"); ok {
		t.Error("two words accepted with minimum of three")
	}
	if _, ok := extract("/generate прямо сейчас пожалуйста"); ok {
		t.Error("command accepted as free text")
	}
	got, ok := extract("  мы строили замок из песка  ")
	if !ok || got != "мы строили замок из песка" {
		t.Errorf("extract = %q, %v", got, ok)
	}
}

func TestCollectFactsMultipleFromOneMessage(t *testing.T) {
	variant, _ := VariantFor(KindQuest)
	sess := NewSession("owner-1", KindQuest)

	added := collectFacts(sess, variant, "Сына зовут Миша, ему 7 лет")
	if added != 2 {
		t.Fatalf("collectFacts added %d facts, want 2", added)
	}

	name, _ := sess.FactValue("child_name")
	age, _ := sess.FactValue("child_age")
	if name != "Миша" || age != "7" {
		t.Errorf("facts = %q/%q, want Миша/7", name, age)
	}
}

func TestCollectFactsAnchoredWaitsForItsTurn(t *testing.T) {
	variant, _ := VariantFor(KindQuest)
	sess := NewSession("owner-1", KindQuest)

	// A long free-form reply while the name is being asked must not be
	// swallowed by the anchored memory slot.
	added := collectFacts(sess, variant, "мы всё лето строили замки из песка")
	if added != 0 {
		t.Fatalf("collectFacts added %d facts, want 0", added)
	}

	sess.AddFact("child_name", "Миша")
	sess.AddFact("child_age", "7")

	added = collectFacts(sess, variant, "мы всё лето строили замки из песка")
	if added != 1 {
		t.Fatalf("collectFacts added %d facts, want 1", added)
	}
	memory, _ := sess.FactValue("child_memory")
	if memory != "мы всё лето строили замки из песка" {
		t.Errorf("child_memory = %q", memory)
	}
}
