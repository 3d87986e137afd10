package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-coparenting-be/pkg/llm"
	"ai-coparenting-be/pkg/quest"
	"ai-coparenting-be/pkg/safety"
	"ai-coparenting-be/pkg/style"
)

// ErrIllegalAction is returned when an action is requested against a
// stage that has no such transition. The session stage is left unchanged.
var ErrIllegalAction = errors.New("action is not legal in the current stage")

// SessionStore holds live sessions keyed by owner and workflow kind
type SessionStore interface {
	Get(ownerID string, kind Kind) (*Session, bool)
	Save(sess *Session)
	Delete(ownerID string, kind Kind)
}

// SafetyEvaluator is the gate the engine consults before finalizing
type SafetyEvaluator interface {
	Evaluate(ctx context.Context, text string, threshold float64, useReviewer bool) *safety.Verdict
}

// QuestComposer builds a quest graph from collected facts
type QuestComposer interface {
	Generate(ctx context.Context, facts []quest.Fact) (*quest.Graph, error)
}

// FinalResult describes the persisted (and possibly published) artifact
type FinalResult struct {
	ArtifactID string
	ShareURL   string
}

// Finalizer hands the finished draft off to persistence and publishing.
// It must be safe to call again with the same draft after a failure.
type Finalizer interface {
	Finalize(ctx context.Context, sess *Session) (*FinalResult, error)
}

// TurnInput is one raw user turn
type TurnInput struct {
	OwnerID     string
	Kind        Kind
	Text        string
	NotifyEmail string
}

// TurnOutput is the plain-data response payload for one turn
type TurnOutput struct {
	Stage   Stage           `json:"stage"`
	Reply   string          `json:"reply"`
	Choices []string        `json:"choices,omitempty"`
	Verdict *safety.Verdict `json:"verdict,omitempty"`
	Final   *FinalResult    `json:"final,omitempty"`
}

// In-band commands, parsed from the turn text prefix
const (
	cmdNone        = ""
	cmdCancel      = "/cancel"
	cmdRevise      = "/revise"
	cmdAcknowledge = "/acknowledge"
	cmdGenerate    = "/generate"
	cmdRewrite     = "/rewrite"
)

// Engine drives the authoring state machine. Every handler either commits
// a legal transition or leaves the previous stage untouched; collaborator
// failures degrade, they never crash the turn.
type Engine struct {
	store       SessionStore
	safety      SafetyEvaluator
	quests      QuestComposer
	llmProvider llm.LLMProvider
	stylist     *style.Analyzer
	finalizer   Finalizer
	logger      *log.Logger
	locks       *ownerLocks
}

func NewEngine(
	store SessionStore,
	safetyEvaluator SafetyEvaluator,
	quests QuestComposer,
	llmProvider llm.LLMProvider,
	stylist *style.Analyzer,
	finalizer Finalizer,
	logger *log.Logger,
) *Engine {
	return &Engine{
		store:       store,
		safety:      safetyEvaluator,
		quests:      quests,
		llmProvider: llmProvider,
		stylist:     stylist,
		finalizer:   finalizer,
		logger:      logger,
		locks:       newOwnerLocks(),
	}
}

// HandleTurn processes one user turn for the owner's session of the given
// kind, creating the session on first contact.
func (e *Engine) HandleTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	variant, err := VariantFor(in.Kind)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(in.OwnerID + ":" + string(in.Kind))
	defer unlock()

	sess, found := e.store.Get(in.OwnerID, in.Kind)
	if !found {
		sess = NewSession(in.OwnerID, in.Kind)
	}
	sess.LastActivityAt = time.Now()
	if in.NotifyEmail != "" {
		sess.NotifyEmail = in.NotifyEmail
	}

	cmd, text := parseCommand(in.Text)

	if cmd == cmdCancel {
		sess.Stage = StageCancelled
		e.store.Delete(sess.OwnerID, sess.Kind)
		return &TurnOutput{Stage: StageCancelled, Reply: "Сессия отменена. Ничего не сохранено."}, nil
	}

	out, err := e.dispatch(ctx, sess, variant, cmd, text)
	if err != nil {
		// Pre-turn stage is preserved: handlers mutate only on success.
		return nil, err
	}

	if sess.Terminal() {
		e.store.Delete(sess.OwnerID, sess.Kind)
	} else {
		e.store.Save(sess)
	}
	return out, nil
}

// Cancel explicitly cancels the owner's active session of the given kind
func (e *Engine) Cancel(ownerID string, kind Kind) (*TurnOutput, error) {
	unlock := e.locks.acquire(ownerID + ":" + string(kind))
	defer unlock()

	if _, found := e.store.Get(ownerID, kind); !found {
		return nil, fmt.Errorf("no active %s session: %w", kind, ErrIllegalAction)
	}
	e.store.Delete(ownerID, kind)
	return &TurnOutput{Stage: StageCancelled, Reply: "Сессия отменена. Ничего не сохранено."}, nil
}

// Snapshot returns a copy of the live session, if any
func (e *Engine) Snapshot(ownerID string, kind Kind) (*Session, bool) {
	unlock := e.locks.acquire(ownerID + ":" + string(kind))
	defer unlock()

	sess, found := e.store.Get(ownerID, kind)
	if !found {
		return nil, false
	}
	copied := *sess
	return &copied, true
}

func (e *Engine) dispatch(ctx context.Context, sess *Session, variant *Variant, cmd, text string) (*TurnOutput, error) {
	// Acknowledging risk is only legal while findings are under review
	// with a blocking verdict on the table.
	if cmd == cmdAcknowledge && sess.Stage != StageReviewFindings {
		return nil, fmt.Errorf("nothing to acknowledge at stage %s: %w", sess.Stage, ErrIllegalAction)
	}
	if cmd == cmdRevise && sess.Stage != StageReviewFindings {
		return nil, fmt.Errorf("nothing to revise at stage %s: %w", sess.Stage, ErrIllegalAction)
	}

	switch sess.Stage {
	case StageInit:
		return e.handleInit(sess, variant)
	case StageIntake:
		return e.handleIntake(ctx, sess, variant, text)
	case StageDraft:
		return e.handleDraft(ctx, sess, variant, cmd, text)
	case StageReviewFindings:
		return e.handleReview(ctx, sess, variant, cmd, text)
	case StageFinalize:
		// Hand-off failed earlier; any turn retries with the same draft.
		return e.finalize(ctx, sess)
	default:
		return nil, fmt.Errorf("no transition from stage %s: %w", sess.Stage, ErrIllegalAction)
	}
}

func (e *Engine) handleInit(sess *Session, variant *Variant) (*TurnOutput, error) {
	if len(variant.Facts) == 0 {
		sess.Stage = StageDraft
		return &TurnOutput{
			Stage: sess.Stage,
			Reply: variant.Intro + "\n" + variant.DraftAsk,
		}, nil
	}

	sess.Stage = StageIntake
	return &TurnOutput{
		Stage: sess.Stage,
		Reply: variant.Intro + "\n" + variant.Facts[0].Prompt,
	}, nil
}

func (e *Engine) handleIntake(ctx context.Context, sess *Session, variant *Variant, text string) (*TurnOutput, error) {
	collectFacts(sess, variant, text)

	missing := missingFacts(sess, variant)
	if len(missing) > 0 {
		// Re-prompt for the specific missing fact, never fail the turn
		return &TurnOutput{
			Stage: sess.Stage,
			Reply: missing[0].Prompt,
		}, nil
	}

	if sess.Kind == KindQuest {
		// The quest draft is generated, not typed
		sess.Stage = StageDraft
		return e.generateQuestDraft(ctx, sess, variant)
	}

	sess.Stage = StageDraft
	return &TurnOutput{
		Stage: sess.Stage,
		Reply: variant.DraftAsk,
	}, nil
}

func (e *Engine) handleDraft(ctx context.Context, sess *Session, variant *Variant, cmd, text string) (*TurnOutput, error) {
	switch cmd {
	case cmdGenerate:
		if sess.Kind == KindQuest {
			return e.generateQuestDraft(ctx, sess, variant)
		}
		return e.generateLetterDraft(ctx, sess, variant)

	case cmdRewrite:
		if sess.DraftText == "" {
			return &TurnOutput{Stage: sess.Stage, Reply: "Черновика ещё нет. " + variant.DraftAsk}, nil
		}
		rewritten := e.stylist.Rewrite(sess.DraftText)
		sess.SetDraft(sess.DraftTitle, rewritten)
		return e.gate(ctx, sess, variant)

	default:
		if strings.TrimSpace(text) == "" {
			return &TurnOutput{Stage: sess.Stage, Reply: variant.DraftAsk}, nil
		}
		sess.SetDraft(e.draftTitle(sess), text)
		return e.gate(ctx, sess, variant)
	}
}

func (e *Engine) handleReview(ctx context.Context, sess *Session, variant *Variant, cmd, text string) (*TurnOutput, error) {
	switch cmd {
	case cmdRevise:
		sess.Stage = StageDraft
		return &TurnOutput{
			Stage: sess.Stage,
			Reply: "Хорошо, давайте поправим. " + variant.DraftAsk,
		}, nil

	case cmdAcknowledge:
		if sess.Verdict == nil || !sess.Verdict.IsBlocking {
			return nil, fmt.Errorf("no blocking verdict to acknowledge: %w", ErrIllegalAction)
		}
		sess.RiskAcknowledged = true
		return e.finalize(ctx, sess)

	default:
		// A plain message while reviewing is an implicit revision
		if strings.TrimSpace(text) == "" {
			return &TurnOutput{
				Stage:   sess.Stage,
				Reply:   "Вы можете исправить текст (/revise), отправить новый вариант или принять риск (/acknowledge).",
				Choices: []string{cmdRevise, cmdAcknowledge},
			}, nil
		}
		sess.Stage = StageDraft
		sess.SetDraft(e.draftTitle(sess), text)
		return e.gate(ctx, sess, variant)
	}
}

// gate runs the safety check for destinations that require it and routes
// the session to Finalize or ReviewFindings. Private destinations skip
// straight to Finalize; that bypass is policy, not a bug.
func (e *Engine) gate(ctx context.Context, sess *Session, variant *Variant) (*TurnOutput, error) {
	if !ShouldCheckToxicity(variant.Destination) {
		return e.finalize(ctx, sess)
	}

	sess.Stage = StageSafetyCheck
	verdict := e.safety.Evaluate(ctx, sess.DraftText, variant.Threshold, true)
	sess.Verdict = verdict

	if !verdict.IsBlocking {
		return e.finalize(ctx, sess)
	}

	sess.Stage = StageReviewFindings
	return &TurnOutput{
		Stage:   sess.Stage,
		Reply:   formatVerdict(verdict),
		Choices: []string{cmdRevise, cmdAcknowledge},
		Verdict: verdict,
	}, nil
}

// finalize hands the draft off. On failure the session stays in Finalize
// and the user may retry with the same draft; the draft is never dropped.
func (e *Engine) finalize(ctx context.Context, sess *Session) (*TurnOutput, error) {
	sess.Stage = StageFinalize

	result, err := e.finalizer.Finalize(ctx, sess)
	if err != nil {
		e.logger.Printf("[ENGINE] Finalize failed for %s/%s: %v", sess.OwnerID, sess.Kind, err)
		return &TurnOutput{
			Stage: sess.Stage,
			Reply: "Не получилось сохранить результат. Отправьте любое сообщение, чтобы попробовать ещё раз.",
		}, nil
	}

	sess.Stage = StageDone
	reply := "Готово! Текст сохранён."
	if result.ShareURL != "" {
		reply = "Готово! Ссылка: " + result.ShareURL
	}
	return &TurnOutput{
		Stage: sess.Stage,
		Reply: reply,
		Final: result,
	}, nil
}

func (e *Engine) generateQuestDraft(ctx context.Context, sess *Session, variant *Variant) (*TurnOutput, error) {
	graph, err := e.quests.Generate(ctx, toQuestFacts(sess.Facts))
	if err != nil {
		// Retryable generation failure: stage stays Draft
		e.logger.Printf("[ENGINE] Quest generation failed: %v", err)
		return &TurnOutput{
			Stage:   sess.Stage,
			Reply:   "Не удалось собрать квест. Отправьте /generate, чтобы попробовать ещё раз.",
			Choices: []string{cmdGenerate},
		}, nil
	}

	sess.SetDraft(graph.Title, graph.Render())
	return e.gate(ctx, sess, variant)
}

func (e *Engine) generateLetterDraft(ctx context.Context, sess *Session, variant *Variant) (*TurnOutput, error) {
	prompt := buildLetterPrompt(sess)
	text, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.6))
	if err != nil {
		e.logger.Printf("[ENGINE] Letter generation failed: %v", err)
		return &TurnOutput{
			Stage:   sess.Stage,
			Reply:   "Не удалось составить черновик. Отправьте /generate ещё раз или напишите текст сами.",
			Choices: []string{cmdGenerate},
		}, nil
	}

	sess.SetDraft(e.draftTitle(sess), strings.TrimSpace(text))
	return e.gate(ctx, sess, variant)
}

func (e *Engine) draftTitle(sess *Session) string {
	switch sess.Kind {
	case KindLetter:
		if recipient, ok := sess.FactValue("recipient"); ok {
			return "Письмо для " + recipient
		}
		return "Письмо"
	case KindQuest:
		if name, ok := sess.FactValue("child_name"); ok {
			return "Квест для " + name
		}
		return "Квест"
	default:
		return "Личная запись от " + sess.CreatedAt.Format("02.01.2006")
	}
}

func buildLetterPrompt(sess *Session) string {
	var prompt strings.Builder
	prompt.WriteString("Составь короткое спокойное письмо второму родителю.\n")
	prompt.WriteString("Без обвинений и давления, только факты и конкретная просьба.\n\n")
	for _, f := range sess.Facts {
		prompt.WriteString(f.Key + ": " + f.Value + "\n")
	}
	if sess.DraftText != "" {
		prompt.WriteString("\nПредыдущий вариант:\n" + sess.DraftText + "\n")
	}
	return prompt.String()
}

func formatVerdict(v *safety.Verdict) string {
	var b strings.Builder
	b.WriteString("Перед отправкой стоит кое-что поправить:\n")
	for _, f := range v.Findings {
		b.WriteString(fmt.Sprintf("• %s — %q\n", f.Message, f.Evidence))
	}
	if v.Rationale != "" {
		b.WriteString("\n" + v.Rationale + "\n")
	}
	if v.RewriteSuggestion != "" {
		b.WriteString("\nВозможный вариант:\n" + v.RewriteSuggestion + "\n")
	}
	b.WriteString("\nИсправить — /revise, отправить как есть — /acknowledge.")
	return b.String()
}

func toQuestFacts(facts []Fact) []quest.Fact {
	out := make([]quest.Fact, len(facts))
	for i, f := range facts {
		out[i] = quest.Fact{Key: f.Key, Value: f.Value}
	}
	return out
}

func parseCommand(text string) (cmd, rest string) {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)
	for _, c := range []string{cmdCancel, cmdRevise, cmdAcknowledge, cmdGenerate, cmdRewrite} {
		if lowered == c || strings.HasPrefix(lowered, c+" ") {
			return c, strings.TrimSpace(trimmed[len(c):])
		}
	}
	return cmdNone, trimmed
}
