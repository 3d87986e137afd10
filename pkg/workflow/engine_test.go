package workflow

import (
	"context"
	"errors"
	"log"
	"testing"

	"ai-coparenting-be/pkg/llm"
	"ai-coparenting-be/pkg/quest"
	"ai-coparenting-be/pkg/safety"
	"ai-coparenting-be/pkg/style"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	sessions map[string]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*Session)}
}

func (s *fakeStore) Get(ownerID string, kind Kind) (*Session, bool) {
	sess, ok := s.sessions[ownerID+":"+string(kind)]
	return sess, ok
}

func (s *fakeStore) Save(sess *Session) {
	s.sessions[sess.OwnerID+":"+string(sess.Kind)] = sess
}

func (s *fakeStore) Delete(ownerID string, kind Kind) {
	delete(s.sessions, ownerID+":"+string(kind))
}

type fakeSafety struct {
	verdict *safety.Verdict
	calls   int
}

func (f *fakeSafety) Evaluate(ctx context.Context, text string, threshold float64, useReviewer bool) *safety.Verdict {
	f.calls++
	if f.verdict != nil {
		return f.verdict
	}
	return &safety.Verdict{OverallScore: 0, IsBlocking: false}
}

type fakeQuests struct {
	graph *quest.Graph
	err   error
}

func (f *fakeQuests) Generate(ctx context.Context, facts []quest.Fact) (*quest.Graph, error) {
	return f.graph, f.err
}

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.text, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.text, f.err
}

type fakeFinalizer struct {
	result *FinalResult
	err    error
	calls  int
}

func (f *fakeFinalizer) Finalize(ctx context.Context, sess *Session) (*FinalResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &FinalResult{ArtifactID: "artifact-1", ShareURL: "https://telegra.ph/x"}, nil
}

type engineFixture struct {
	engine    *Engine
	store     *fakeStore
	safety    *fakeSafety
	quests    *fakeQuests
	finalizer *fakeFinalizer
}

func newFixture() *engineFixture {
	store := newFakeStore()
	safetyEval := &fakeSafety{}
	quests := &fakeQuests{graph: testGraph()}
	finalizer := &fakeFinalizer{}

	engine := NewEngine(
		store,
		safetyEval,
		quests,
		&fakeLLM{text: "Сгенерированный черновик письма"},
		style.NewAnalyzer(),
		finalizer,
		log.Default(),
	)
	return &engineFixture{
		engine:    engine,
		store:     store,
		safety:    safetyEval,
		quests:    quests,
		finalizer: finalizer,
	}
}

func testGraph() *quest.Graph {
	return &quest.Graph{
		Title: "Квест для Миши",
		Intro: "Привет, Миша!",
		Steps: []quest.Step{
			{ID: "start", Text: "Ты на пляже", Choices: []quest.Choice{{Text: "Строить замок", Next: "finish"}}},
			{ID: "finish", Text: "Замок готов!"},
		},
	}
}

func turn(t *testing.T, f *engineFixture, kind Kind, text string) *TurnOutput {
	t.Helper()
	out, err := f.engine.HandleTurn(context.Background(), TurnInput{OwnerID: "owner-1", Kind: kind, Text: text})
	if err != nil {
		t.Fatalf("HandleTurn(%q) error: %v", text, err)
	}
	return out
}

func TestLetterHappyPath(t *testing.T) {
	f := newFixture()

	out := turn(t, f, KindLetter, "привет")
	assert.Equal(t, StageIntake, out.Stage)
	assert.Contains(t, out.Reply, "Кому адресовано письмо")

	out = turn(t, f, KindLetter, "Андрей")
	assert.Equal(t, StageIntake, out.Stage)
	assert.Contains(t, out.Reply, "О чём вы хотите договориться")

	out = turn(t, f, KindLetter, "договориться о расписании выходных")
	assert.Equal(t, StageDraft, out.Stage)

	out = turn(t, f, KindLetter, "Планирую забрать ребёнка в субботу в 10:00, прошу подтвердить.")
	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, 1, f.safety.calls)
	assert.Equal(t, 1, f.finalizer.calls)
	assert.NotNil(t, out.Final)
	assert.Contains(t, out.Reply, "https://telegra.ph/x")

	// Terminal sessions are evicted
	_, found := f.store.Get("owner-1", KindLetter)
	assert.False(t, found)
}

func TestLetterBlockedThenRevised(t *testing.T) {
	f := newFixture()
	f.safety.verdict = &safety.Verdict{
		OverallScore: 1.0,
		IsBlocking:   true,
		Findings:     []safety.Finding{{Category: safety.CategoryInsult, Severity: safety.SeverityCritical, Message: "Оскорбление", Evidence: "сволочь"}},
	}

	turn(t, f, KindLetter, "привет")
	turn(t, f, KindLetter, "Андрей")
	turn(t, f, KindLetter, "договориться о расписании выходных")

	out := turn(t, f, KindLetter, "ты сволочь, отдай ребёнка")
	assert.Equal(t, StageReviewFindings, out.Stage)
	assert.Contains(t, out.Choices, "/revise")
	assert.Contains(t, out.Choices, "/acknowledge")
	assert.NotNil(t, out.Verdict)
	assert.Zero(t, f.finalizer.calls)

	// Revision goes back to drafting and a clean text passes
	out = turn(t, f, KindLetter, "/revise")
	assert.Equal(t, StageDraft, out.Stage)

	f.safety.verdict = nil
	out = turn(t, f, KindLetter, "Прошу подтвердить субботу в 10:00.")
	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, 1, f.finalizer.calls)
}

func TestLetterBlockedThenAcknowledged(t *testing.T) {
	f := newFixture()
	f.safety.verdict = &safety.Verdict{
		OverallScore: 0.5,
		IsBlocking:   true,
		Findings:     []safety.Finding{{Category: safety.CategoryPressure, Severity: safety.SeverityHigh}},
	}

	turn(t, f, KindLetter, "привет")
	turn(t, f, KindLetter, "Андрей")
	turn(t, f, KindLetter, "договориться о расписании выходных")
	turn(t, f, KindLetter, "Ответь немедленно про субботу 10:00")

	out := turn(t, f, KindLetter, "/acknowledge")
	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, 1, f.finalizer.calls)
}

func TestJournalSkipsSafetyCheck(t *testing.T) {
	f := newFixture()

	out := turn(t, f, KindJournal, "начать")
	assert.Equal(t, StageDraft, out.Stage)

	out = turn(t, f, KindJournal, "ты сволочь, я так больше не могу")
	assert.Equal(t, StageDone, out.Stage)

	// Private destination: the gate must never run
	assert.Zero(t, f.safety.calls)
	assert.Equal(t, 1, f.finalizer.calls)
}

func TestAcknowledgeOutsideReviewIsIllegal(t *testing.T) {
	f := newFixture()

	turn(t, f, KindLetter, "привет")
	turn(t, f, KindLetter, "Андрей")
	turn(t, f, KindLetter, "договориться о расписании выходных")

	_, err := f.engine.HandleTurn(context.Background(), TurnInput{OwnerID: "owner-1", Kind: KindLetter, Text: "/acknowledge"})
	assert.ErrorIs(t, err, ErrIllegalAction)

	// The failed action leaves the stage untouched
	sess, found := f.store.Get("owner-1", KindLetter)
	assert.True(t, found)
	assert.Equal(t, StageDraft, sess.Stage)
	assert.Zero(t, f.finalizer.calls)
}

func TestQuestIntakeRepromptsMissingFact(t *testing.T) {
	f := newFixture()

	out := turn(t, f, KindQuest, "хочу квест")
	assert.Equal(t, StageIntake, out.Stage)
	assert.Contains(t, out.Reply, "Как зовут ребёнка")

	out = turn(t, f, KindQuest, "Его зовут Миша")
	assert.Contains(t, out.Reply, "Сколько ребёнку лет")

	out = turn(t, f, KindQuest, "Ему 7 лет")
	// Two of three facts collected: stay in intake and ask exactly for
	// the one still missing
	assert.Equal(t, StageIntake, out.Stage)
	assert.Contains(t, out.Reply, "воспоминание")

	sess, _ := f.store.Get("owner-1", KindQuest)
	name, _ := sess.FactValue("child_name")
	age, _ := sess.FactValue("child_age")
	assert.Equal(t, "Миша", name)
	assert.Equal(t, "7", age)
}

func TestQuestGeneratedAfterIntake(t *testing.T) {
	f := newFixture()

	turn(t, f, KindQuest, "хочу квест")
	turn(t, f, KindQuest, "Миша")
	turn(t, f, KindQuest, "7")

	out := turn(t, f, KindQuest, "Мы вместе строили замок из песка")
	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, 1, f.safety.calls)
	assert.Equal(t, 1, f.finalizer.calls)
}

func TestQuestGenerationFailureIsRetryable(t *testing.T) {
	f := newFixture()
	f.quests.err = quest.ErrInvalidGraph
	f.quests.graph = nil

	turn(t, f, KindQuest, "хочу квест")
	turn(t, f, KindQuest, "Миша")
	turn(t, f, KindQuest, "7")

	out := turn(t, f, KindQuest, "Мы вместе строили замок из песка")
	assert.Equal(t, StageDraft, out.Stage)
	assert.Contains(t, out.Choices, "/generate")

	// Generation recovers on the next /generate
	f.quests.err = nil
	f.quests.graph = testGraph()
	out = turn(t, f, KindQuest, "/generate")
	assert.Equal(t, StageDone, out.Stage)
}

func TestFinalizeFailureKeepsDraft(t *testing.T) {
	f := newFixture()
	f.finalizer.err = errors.New("db down")

	turn(t, f, KindJournal, "начать")
	out := turn(t, f, KindJournal, "моя личная запись")
	assert.Equal(t, StageFinalize, out.Stage)

	sess, found := f.store.Get("owner-1", KindJournal)
	assert.True(t, found)
	assert.Equal(t, "моя личная запись", sess.DraftText)

	// Any turn retries the hand-off with the same draft
	f.finalizer.err = nil
	out = turn(t, f, KindJournal, "попробуй ещё раз")
	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, 2, f.finalizer.calls)
}

func TestCancelDiscardsSession(t *testing.T) {
	f := newFixture()

	turn(t, f, KindLetter, "привет")
	out := turn(t, f, KindLetter, "/cancel")
	assert.Equal(t, StageCancelled, out.Stage)

	_, found := f.store.Get("owner-1", KindLetter)
	assert.False(t, found)
	assert.Zero(t, f.finalizer.calls)
}

func TestCancelWithoutSession(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Cancel("owner-1", KindLetter)
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestDraftReplacementInvalidatesVerdict(t *testing.T) {
	sess := NewSession("owner-1", KindLetter)
	sess.Verdict = &safety.Verdict{IsBlocking: true}
	sess.RiskAcknowledged = true

	sess.SetDraft("Письмо", "новый текст")

	assert.Nil(t, sess.Verdict)
	assert.False(t, sess.RiskAcknowledged)
}

func TestUnknownKindRejected(t *testing.T) {
	f := newFixture()

	_, err := f.engine.HandleTurn(context.Background(), TurnInput{OwnerID: "owner-1", Kind: Kind("poem"), Text: "hi"})
	assert.Error(t, err)
}
