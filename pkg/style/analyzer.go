package style

import (
	"regexp"
	"strings"
)

// Dimension names one communication discipline the analyzer rates
type Dimension string

const (
	DimensionBrief    Dimension = "is_brief"    // short enough to be read, not skimmed
	DimensionConcrete Dimension = "is_concrete" // names a date, time or number
	DimensionCordial  Dimension = "is_cordial"  // free of hostile wording
	DimensionFirm     Dimension = "is_firm"     // contains a clear actionable request
)

// Dimensions is the fixed evaluation order; Analyze and Rewrite both
// follow it so results are stable across runs.
var Dimensions = []Dimension{
	DimensionBrief,
	DimensionConcrete,
	DimensionCordial,
	DimensionFirm,
}

const (
	maxBriefWords     = 60
	maxBriefSentences = 4
)

var (
	sentenceSplitter = regexp.MustCompile(`[.!?]+\s*`)
	concretePattern  = regexp.MustCompile(`\d|понедельник|вторник|сред[ау]|четверг|пятниц[ау]|суббот[ау]|воскресень[ея]|monday|tuesday|wednesday|thursday|friday|saturday|sunday`)
	firmMarkers      = []string{
		"прошу", "предлагаю", "подтверди", "подтвердите", "давай договоримся",
		"please confirm", "please reply", "i propose", "let's agree",
	}
)

// hostileReplacements substitutes listed hostile terms with neutral
// equivalents. Keys are matched on the lower-cased text.
var hostileReplacements = []struct {
	Hostile string
	Neutral string
}{
	{"ты обязана", "прошу тебя"},
	{"ты обязан", "прошу тебя"},
	{"немедленно", "как можно скорее"},
	{"из-за тебя", "к сожалению"},
	{"ты во всём виновата", "мне тяжело в этой ситуации"},
	{"ты во всём виноват", "мне тяжело в этой ситуации"},
	{"you must", "please"},
	{"immediately", "as soon as possible"},
}

// Analyzer rates text against the fixed dimension set and can rewrite
// failing dimensions with local transforms. All methods are pure.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the pass/fail map per dimension and the overall score
// (passed dimensions over total).
func (a *Analyzer) Analyze(text string) (map[Dimension]bool, float64) {
	result := make(map[Dimension]bool, len(Dimensions))
	passed := 0
	for _, dim := range Dimensions {
		ok := a.check(dim, text)
		result[dim] = ok
		if ok {
			passed++
		}
	}
	return result, float64(passed) / float64(len(Dimensions))
}

func (a *Analyzer) check(dim Dimension, text string) bool {
	lowered := strings.ToLower(text)
	switch dim {
	case DimensionBrief:
		return len(strings.Fields(text)) <= maxBriefWords && countSentences(text) <= maxBriefSentences
	case DimensionConcrete:
		return concretePattern.MatchString(lowered)
	case DimensionCordial:
		for _, r := range hostileReplacements {
			if strings.Contains(lowered, r.Hostile) {
				return false
			}
		}
		return true
	case DimensionFirm:
		for _, marker := range firmMarkers {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Rewrite applies one local transform per failing dimension, in the fixed
// dimension order. Transforms are idempotent: rerunning Rewrite on text
// that already passes a dimension leaves that dimension's part untouched.
func (a *Analyzer) Rewrite(text string) string {
	out := text

	if !a.check(DimensionBrief, out) {
		out = trimToSentences(out, maxBriefSentences)
	}

	if !a.check(DimensionCordial, out) {
		out = neutralizeHostile(out)
	}

	if !a.check(DimensionFirm, out) {
		out = strings.TrimRight(out, " \n")
		if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
			out += "."
		}
		out += " Прошу подтвердить, что это удобно."
	}

	return out
}

func countSentences(text string) int {
	count := 0
	for _, part := range sentenceSplitter.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

func trimToSentences(text string, limit int) string {
	locs := sentenceSplitter.FindAllStringIndex(text, -1)
	if len(locs) < limit {
		return text
	}
	// Keep everything up to the end of the limit-th sentence terminator
	end := locs[limit-1][1]
	return strings.TrimSpace(text[:end])
}

func neutralizeHostile(text string) string {
	out := text
	for _, r := range hostileReplacements {
		out = replaceFold(out, r.Hostile, r.Neutral)
	}
	return out
}

// replaceFold is a case-insensitive strings.ReplaceAll for our short
// static substitution list.
func replaceFold(text, old, new string) string {
	lowered := strings.ToLower(text)
	oldLowered := strings.ToLower(old)

	var b strings.Builder
	for {
		idx := strings.Index(lowered, oldLowered)
		if idx == -1 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		b.WriteString(new)
		text = text[idx+len(oldLowered):]
		lowered = lowered[idx+len(oldLowered):]
	}
}
