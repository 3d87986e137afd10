package quest

import (
	"errors"
	"strings"
	"testing"
)

const validYAML = `
title: Поиски сокровища
intro: Привет, Миша! Сегодня тебя ждёт приключение.
steps:
  - id: start
    text: Ты на пляже, перед тобой две тропинки.
    choices:
      - text: Пойти налево
        next: castle
      - text: Пойти направо
        next: finish
  - id: castle
    text: Ты нашёл замок из песка!
    choices:
      - text: Достроить башню
        next: finish
  - id: finish
    text: Сокровище найдено. Молодец!
`

func TestParseValidGraph(t *testing.T) {
	graph, err := Parse(validYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if graph.Title != "Поиски сокровища" {
		t.Errorf("Title = %q", graph.Title)
	}
	if len(graph.Steps) != 3 {
		t.Errorf("Steps = %d, want 3", len(graph.Steps))
	}
}

func TestParseWithCodeFence(t *testing.T) {
	fenced := "```yaml\n" + validYAML + "\n```"
	graph, err := Parse(fenced)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(graph.Steps) != 3 {
		t.Errorf("Steps = %d, want 3", len(graph.Steps))
	}
}

func TestParseInvalidGraphs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "not yaml at all",
			yaml: "Вот твой квест: жил-был мальчик {{{",
		},
		{
			name: "missing title",
			yaml: "steps:\n  - id: start\n    text: x",
		},
		{
			name: "no steps",
			yaml: "title: Квест",
		},
		{
			name: "duplicate step ids",
			yaml: "title: Квест\nsteps:\n  - id: a\n    text: x\n  - id: a\n    text: y",
		},
		{
			name: "choice points nowhere",
			yaml: "title: Квест\nsteps:\n  - id: a\n    text: x\n    choices:\n      - text: дальше\n        next: ghost\n  - id: b\n    text: y",
		},
		{
			name: "no terminal step",
			yaml: "title: Квест\nsteps:\n  - id: a\n    text: x\n    choices:\n      - text: к b\n        next: b\n  - id: b\n    text: y\n    choices:\n      - text: к a\n        next: a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.yaml)
			if !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("Parse() error = %v, want ErrInvalidGraph", err)
			}
		})
	}
}

func TestRenderDoubleDigitChoices(t *testing.T) {
	step := Step{ID: "start", Text: "Выбери дверь."}
	for i := 0; i < 10; i++ {
		step.Choices = append(step.Choices, Choice{Text: "Дверь", Next: "end"})
	}
	g := &Graph{
		Title: "Квест",
		Intro: "Поехали.",
		Steps: []Step{step, {ID: "end", Text: "Конец."}},
	}

	rendered := g.Render()
	if !strings.Contains(rendered, "10) Дверь") {
		t.Errorf("Render() is missing choice 10:\n%s", rendered)
	}
}

func TestRender(t *testing.T) {
	graph, err := Parse(validYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	rendered := graph.Render()
	for _, want := range []string{
		"Привет, Миша!",
		"Ты на пляже",
		"1) Пойти налево",
		"2) Пойти направо",
		"Сокровище найдено",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() is missing %q:\n%s", want, rendered)
		}
	}
}
