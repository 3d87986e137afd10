package workflow

import "fmt"

// Destination is the eventual consumer of finished content. It decides
// the blocking threshold and whether the safety gate applies at all.
type Destination string

const (
	DestinationCoParent Destination = "coparent" // the other parent reads it now
	DestinationChild    Destination = "child"    // a child reads it, possibly years later
	DestinationPrivate  Destination = "private"  // never leaves the author
)

// ShouldCheckToxicity reports whether content for the destination must
// pass the safety gate. Strictly private content legitimately bypasses
// the check.
func ShouldCheckToxicity(dest Destination) bool {
	return dest != DestinationPrivate
}

// Variant parametrizes the engine for one workflow kind: required intake
// facts, safety destination and threshold, and whether finalizing
// publishes a page.
type Variant struct {
	Kind        Kind
	Destination Destination
	Threshold   float64
	Facts       []FactSpec
	Publishes   bool

	Intro       string
	DraftAsk    string
}

var variants = map[Kind]*Variant{
	KindLetter: {
		Kind:        KindLetter,
		Destination: DestinationCoParent,
		Threshold:   0.30,
		Publishes:   true,
		Intro:       "Давайте вместе составим письмо второму родителю. Сначала пара вопросов.",
		DraftAsk:    "Напишите текст письма. Команда /generate составит черновик за вас, /rewrite поправит стиль.",
		Facts: []FactSpec{
			{
				Key:     "recipient",
				Prompt:  "Кому адресовано письмо? Напишите имя.",
				Extract: extractName,
			},
			{
				Key:      "goal",
				Prompt:   "О чём вы хотите договориться? Опишите цель письма.",
				Extract:  extractFreeText(3),
				Anchored: true,
			},
		},
	},
	KindQuest: {
		Kind:        KindQuest,
		Destination: DestinationChild,
		Threshold:   0.25,
		Publishes:   true,
		Intro:       "Соберём квест для вашего ребёнка. Мне нужно немного узнать о нём.",
		DraftAsk:    "Черновик квеста готов.",
		Facts: []FactSpec{
			{
				Key:     "child_name",
				Prompt:  "Как зовут ребёнка?",
				Extract: extractName,
			},
			{
				Key:     "child_age",
				Prompt:  "Сколько ребёнку лет?",
				Extract: extractAge,
			},
			{
				Key:      "child_memory",
				Prompt:   "Расскажите одно тёплое воспоминание или увлечение ребёнка.",
				Extract:  extractFreeText(3),
				Anchored: true,
			},
		},
	},
	KindJournal: {
		Kind:        KindJournal,
		Destination: DestinationPrivate,
		Threshold:   1.0,
		Publishes:   false,
		Intro:       "Это ваша личная запись, её никто не увидит.",
		DraftAsk:    "Напишите всё, что хотите сохранить.",
		Facts:       nil,
	},
}

// VariantFor returns the configuration for a workflow kind
func VariantFor(kind Kind) (*Variant, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, fmt.Errorf("unknown workflow kind: %s", kind)
	}
	return v, nil
}
