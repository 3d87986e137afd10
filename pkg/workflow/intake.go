package workflow

import (
	"regexp"
	"strconv"
	"strings"
)

// FactSpec declares one required intake fact: how to recognize it in free
// text and what to ask when it is still missing. Extraction is heuristic;
// a failed extraction re-prompts, it never fails the turn.
type FactSpec struct {
	Key     string
	Prompt  string
	Extract func(text string) (string, bool)

	// Anchored facts (free-form answers) are only taken when this fact is
	// the one currently being asked, otherwise any long reply would be
	// swallowed by the wrong slot.
	Anchored bool
}

var (
	agePattern  = regexp.MustCompile(`(\d{1,2})\s*(лет|года?|years? old|год)?`)
	namePattern = regexp.MustCompile(`(?:зовут|имя|name is|называется)\s+([^\s.,!?]+)`)
)

// extractName picks a name after a trigger word, or takes a short reply
// as the name itself.
func extractName(text string) (string, bool) {
	if m := namePattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		// Re-find in the original text to keep capitalization
		idx := strings.Index(strings.ToLower(text), m[1])
		if idx >= 0 {
			return strings.Trim(text[idx:idx+len(m[1])], ".,!? "), true
		}
		return m[1], true
	}
	fields := strings.Fields(text)
	if len(fields) == 1 {
		name := strings.Trim(fields[0], ".,!? ")
		if name != "" && !strings.HasPrefix(name, "/") {
			return name, true
		}
	}
	return "", false
}

// extractAge finds a plausible child age in the text
func extractAge(text string) (string, bool) {
	for _, m := range agePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= 1 && n <= 17 {
			return m[1], true
		}
	}
	return "", false
}

// extractFreeText accepts any reply long enough to carry meaning
func extractFreeText(minWords int) func(string) (string, bool) {
	return func(text string) (string, bool) {
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "/") {
			return "", false
		}
		if len(strings.Fields(trimmed)) < minWords {
			return "", false
		}
		return trimmed, true
	}
}

// collectFacts tries to fill the variant's missing facts from one turn of
// free text. Several facts may be filled by a single message ("сына зовут
// Миша, ему 7 лет" carries both a name and an age). Returns how many
// facts were added.
func collectFacts(sess *Session, variant *Variant, text string) int {
	askedKey := ""
	if missing := missingFacts(sess, variant); len(missing) > 0 {
		askedKey = missing[0].Key
	}

	added := 0
	for _, spec := range variant.Facts {
		if _, have := sess.FactValue(spec.Key); have {
			continue
		}
		if spec.Anchored && spec.Key != askedKey {
			continue
		}
		value, ok := spec.Extract(text)
		if !ok {
			continue
		}
		sess.AddFact(spec.Key, value)
		added++
	}
	return added
}

// missingFacts lists the variant facts not yet collected, in spec order
func missingFacts(sess *Session, variant *Variant) []FactSpec {
	var missing []FactSpec
	for _, spec := range variant.Facts {
		if _, have := sess.FactValue(spec.Key); !have {
			missing = append(missing, spec)
		}
	}
	return missing
}
