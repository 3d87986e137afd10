package entity

import (
	"time"

	"github.com/google/uuid"
)

// SafetySummary is the persisted digest of the verdict the artifact was
// finalized under. Nil means the destination required no check.
type SafetySummary struct {
	OverallScore     float64  `json:"overall_score"`
	WasBlocking      bool     `json:"was_blocking"`
	RiskAcknowledged bool     `json:"risk_acknowledged"`
	Categories       []string `json:"categories,omitempty"`
}

type Artifact struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerId   uuid.UUID `gorm:"type:uuid;index"`
	Kind      string
	Title     string
	Content   string
	ShareURL  string
	EditPath  string // private host handle, needed for retract
	Safety    *SafetySummary
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
