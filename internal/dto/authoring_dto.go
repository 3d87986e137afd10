package dto

import (
	"time"

	"ai-coparenting-be/internal/entity"
	"ai-coparenting-be/pkg/safety"

	"github.com/google/uuid"
)

type SendTurnRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=letter quest journal"`
	Text        string `json:"text"`
	VoiceData   string `json:"voice_data,omitempty"` // base64 audio, transcribed server-side
	MimeType    string `json:"mime_type,omitempty"`
	NotifyEmail string `json:"notify_email,omitempty" validate:"omitempty,email"`
}

type SendTurnResponse struct {
	Stage    string            `json:"stage"`
	Reply    string            `json:"reply"`
	Choices  []string          `json:"choices,omitempty"`
	Verdict  *safety.Verdict   `json:"verdict,omitempty"`
	Artifact *ArtifactResponse `json:"artifact,omitempty"`
}

type CancelSessionRequest struct {
	Kind string `json:"kind" validate:"required,oneof=letter quest journal"`
}

type SessionResponse struct {
	Kind           string            `json:"kind"`
	Stage          string            `json:"stage"`
	Facts          map[string]string `json:"facts,omitempty"`
	DraftTitle     string            `json:"draft_title,omitempty"`
	DraftText      string            `json:"draft_text,omitempty"`
	Verdict        *safety.Verdict   `json:"verdict,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

type ArtifactResponse struct {
	Id        uuid.UUID             `json:"id"`
	Kind      string                `json:"kind"`
	Title     string                `json:"title"`
	Content   string                `json:"content,omitempty"`
	ShareURL  string                `json:"share_url,omitempty"`
	Safety    *entity.SafetySummary `json:"safety,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// PublishArtifactMessage rides the in-process event bus after an
// artifact is finalized.
type PublishArtifactMessage struct {
	ArtifactId  uuid.UUID `json:"artifact_id"`
	NotifyEmail string    `json:"notify_email,omitempty"`
}
