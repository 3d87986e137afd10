package detector

import (
	"regexp"

	"ai-coparenting-be/pkg/safety"
)

// ruleSet binds one category to its ordered pattern list and fixed severity.
// The slice below is iterated in declaration order so repeated scans of the
// same text always produce findings in the same order.
type ruleSet struct {
	Category safety.Category
	Severity safety.Severity
	Message  string
	Patterns []*regexp.Regexp
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile(e)
	}
	return compiled
}

// Patterns are matched against lower-cased text. Russian entries avoid \b
// because RE2 word boundaries are ASCII-only.
var defaultRules = []ruleSet{
	{
		Category: safety.CategoryInsult,
		Severity: safety.SeverityCritical,
		Message:  "Оскорбительное выражение в адрес другого человека",
		Patterns: mustPatterns(
			`сволочь`,
			`твар[ьи]`,
			`ничтожеств`,
			`идиот`,
			`дебил`,
			`ты дура`,
			`ты дурак`,
			`коз[её]л`,
			`мраз[ьи]`,
			`\byou (are|re) (an? )?(idiot|loser|psycho)\b`,
			`\bstupid (woman|man|cow)\b`,
		),
	},
	{
		Category: safety.CategoryThreat,
		Severity: safety.SeverityCritical,
		Message:  "Формулировка звучит как угроза",
		Patterns: mustPatterns(
			`больше не увидишь (ребенка|ребёнка|детей|сына|дочь)`,
			`отниму (ребенка|ребёнка|детей)`,
			`заберу (ребенка|ребёнка|детей) навсегда`,
			`ты (у меня )?пожалеешь`,
			`я тебе устрою`,
			`подам на тебя`,
			`\byou('ll| will) (regret|be sorry)\b`,
			`\byou('ll| will) never see\b`,
		),
	},
	{
		Category: safety.CategoryBlame,
		Severity: safety.SeverityCritical,
		Message:  "Обвинительная формулировка вместо описания проблемы",
		Patterns: mustPatterns(
			`это ты виноват`,
			`ты во вс[её]м виновата?`,
			`из-за тебя`,
			`по твоей вине`,
			`\b(it'?s )?all your fault\b`,
			`\bbecause of you\b`,
		),
	},
	{
		Category: safety.CategoryManipulation,
		Severity: safety.SeverityCritical,
		Message:  "Условие или шантаж вместо просьбы",
		Patterns: mustPatterns(
			`если ты не .{0,40}(то|тогда) я`,
			`не получишь .{0,30}пока`,
			`ты (мне )?обязана?`,
			`ты мне должн`,
			`\byou owe me\b`,
			`\bif you don'?t .{0,40}i will\b`,
		),
	},
	{
		Category: safety.CategoryViolence,
		Severity: safety.SeverityCritical,
		Message:  "Упоминание физического насилия",
		Patterns: mustPatterns(
			`удар(ю|ил|ила)`,
			`изобью`,
			`прибью`,
			`поколочу`,
			`убь[юе]`,
			`\bhit you\b`,
			`\bbeat you\b`,
		),
	},
	{
		Category: safety.CategoryPressure,
		Severity: safety.SeverityHigh,
		Message:  "Давление и ультимативный тон",
		Patterns: mustPatterns(
			`немедленно`,
			`сию минуту`,
			`последний раз (тебя )?предупреждаю`,
			`последнее предупреждение`,
			`срочно, иначе`,
			`\blast (warning|chance)\b`,
			`\bright now or else\b`,
		),
	},
	{
		Category: safety.CategoryPersonalInfo,
		Severity: safety.SeverityHigh,
		Message:  "Текст раскрывает персональные данные",
		Patterns: mustPatterns(
			`\+?\d[\d \-\(\)]{9,}\d`,
			`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`,
			`паспорт(а|ные данные)?\s*(№|номер)`,
			`(живу|живет|живёт|проживает) по адресу`,
		),
	},
	{
		Category: safety.CategoryAdultTopic,
		Severity: safety.SeverityMedium,
		Message:  "Взрослая тема, не предназначенная для ребёнка",
		Patterns: mustPatterns(
			`алимент`,
			`суд(ебн|иться|ился|илась)`,
			`развод`,
			`измен(а|ил|ила|яет)`,
			`опек[ау]`,
			`\b(divorce|alimony|custody battle|lawsuit)\b`,
		),
	},
}

// negativeToneWords feed the aggregate tone-negativity ratio, not per-word
// findings.
var negativeToneWords = []string{
	"ненавижу", "ненависть", "отвратительно", "ужасно", "ужасный", "кошмар",
	"невыносимо", "плохо", "хуже", "никогда", "никто", "ничего", "зря",
	"бесит", "достал", "достала", "надоело", "устала", "устал", "обидно",
	"hate", "awful", "terrible", "horrible", "never", "nothing", "worthless",
	"useless", "unbearable", "disgusting",
}
