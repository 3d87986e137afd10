package workflow

import (
	"time"

	"ai-coparenting-be/pkg/safety"
)

// Kind selects which stage sequence and safety policy apply to a session
type Kind string

const (
	KindLetter  Kind = "letter"  // guided letter to the co-parent
	KindQuest   Kind = "quest"   // personalized quest for the child
	KindJournal Kind = "journal" // private entry, never shared
)

// Stage is the session's position in the authoring state machine
type Stage string

const (
	StageInit           Stage = "INIT"
	StageIntake         Stage = "INTAKE"
	StageDraft          Stage = "DRAFT"
	StageSafetyCheck    Stage = "SAFETY_CHECK"
	StageReviewFindings Stage = "REVIEW_FINDINGS"
	StageFinalize       Stage = "FINALIZE"
	StageDone           Stage = "DONE"
	StageCancelled      Stage = "CANCELLED"
)

// Fact is one structured input collected during intake
type Fact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Session is the per-owner mutable authoring state. It is owned by the
// session store and mutated only by the engine, one turn at a time.
type Session struct {
	OwnerID string `json:"owner_id"`
	Kind    Kind   `json:"kind"`
	Stage   Stage  `json:"stage"`

	// DraftText is replaced, never appended, on every drafting turn
	DraftText  string `json:"draft_text"`
	DraftTitle string `json:"draft_title"`

	// Facts accumulate append-only until intake completes
	Facts []Fact `json:"facts"`

	// Verdict always refers to the current DraftText; SetDraft clears it
	Verdict          *safety.Verdict `json:"verdict,omitempty"`
	RiskAcknowledged bool            `json:"risk_acknowledged"`

	NotifyEmail    string    `json:"notify_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// NewSession creates a session at the initial stage
func NewSession(ownerID string, kind Kind) *Session {
	now := time.Now()
	return &Session{
		OwnerID:        ownerID,
		Kind:           kind,
		Stage:          StageInit,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// SetDraft replaces the draft and invalidates any verdict computed for
// the previous text. Acknowledgment dies with the verdict it accepted.
func (s *Session) SetDraft(title, text string) {
	s.DraftTitle = title
	s.DraftText = text
	s.Verdict = nil
	s.RiskAcknowledged = false
}

// AddFact appends a collected fact
func (s *Session) AddFact(key, value string) {
	s.Facts = append(s.Facts, Fact{Key: key, Value: value})
}

// FactValue returns the value for a collected fact key
func (s *Session) FactValue(key string) (string, bool) {
	for _, f := range s.Facts {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Terminal reports whether the session reached an end stage
func (s *Session) Terminal() bool {
	return s.Stage == StageDone || s.Stage == StageCancelled
}
