package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-coparenting-be/internal/dto"
	"ai-coparenting-be/internal/entity"
	"ai-coparenting-be/internal/pkg/logger"
	"ai-coparenting-be/internal/repository/specification"
	"ai-coparenting-be/internal/repository/unitofwork"
	"ai-coparenting-be/pkg/publish"
	"ai-coparenting-be/pkg/transcribe"
	"ai-coparenting-be/pkg/workflow"

	"github.com/google/uuid"
)

var ErrArtifactNotFound = errors.New("artifact not found")

type IAuthoringService interface {
	SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error)
	CancelSession(userId uuid.UUID, kind string) (*dto.SendTurnResponse, error)
	GetSession(userId uuid.UUID, kind string) (*dto.SessionResponse, error)
	ListArtifacts(ctx context.Context, userId uuid.UUID, kind string) ([]*dto.ArtifactResponse, error)
	DeleteArtifact(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

// authoringService fronts the workflow engine for HTTP callers and, as
// the engine's Finalizer, lands finished drafts in Postgres and on the
// publishing host.
type authoringService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	pagePublisher    publish.Publisher
	transcriber      transcribe.Transcriber
	sysLogger        logger.ILogger
	engine           *workflow.Engine
}

func NewAuthoringService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	pagePublisher publish.Publisher,
	transcriber transcribe.Transcriber,
	sysLogger logger.ILogger,
) *authoringService {
	return &authoringService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		pagePublisher:    pagePublisher,
		transcriber:      transcriber,
		sysLogger:        sysLogger,
	}
}

// SetEngine wires the engine after construction. The engine needs this
// service as its Finalizer, so one of the two has to come second.
func (s *authoringService) SetEngine(engine *workflow.Engine) {
	s.engine = engine
}

func (s *authoringService) SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error) {
	kind := workflow.Kind(req.Kind)
	text := req.Text

	if req.VoiceData != "" {
		transcribed, reply := s.transcribeVoice(ctx, req)
		if reply != "" {
			return &dto.SendTurnResponse{Stage: s.currentStage(userId, kind), Reply: reply}, nil
		}
		if text == "" {
			text = transcribed
		} else {
			text = strings.TrimSpace(text + " " + transcribed)
		}
	}

	out, err := s.engine.HandleTurn(ctx, workflow.TurnInput{
		OwnerID:     userId.String(),
		Kind:        kind,
		Text:        text,
		NotifyEmail: req.NotifyEmail,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.SendTurnResponse{
		Stage:   string(out.Stage),
		Reply:   out.Reply,
		Choices: out.Choices,
		Verdict: out.Verdict,
	}

	if out.Final != nil {
		if artifact, err := s.fetchArtifact(ctx, out.Final.ArtifactID); err == nil && artifact != nil {
			resp.Artifact = toArtifactResponse(artifact)
		}
	}

	return resp, nil
}

// transcribeVoice returns either the recognized text or a user-facing
// reply explaining why the voice turn was not processed.
func (s *authoringService) transcribeVoice(ctx context.Context, req *dto.SendTurnRequest) (text, reply string) {
	if s.transcriber == nil || !s.transcriber.Available() {
		return "", "Голосовой ввод не настроен. Напишите сообщение текстом, пожалуйста."
	}

	audio, err := base64.StdEncoding.DecodeString(req.VoiceData)
	if err != nil {
		return "", "Не удалось прочитать аудио. Напишите сообщение текстом, пожалуйста."
	}

	transcribed, err := s.transcriber.Transcribe(ctx, audio, req.MimeType)
	if err != nil {
		s.sysLogger.Warn("AUTHORING", "Voice transcription failed", map[string]interface{}{"error": err.Error()})
		return "", "Не удалось распознать голосовое сообщение. Напишите текстом, пожалуйста."
	}
	return strings.TrimSpace(transcribed), ""
}

func (s *authoringService) currentStage(userId uuid.UUID, kind workflow.Kind) string {
	if sess, found := s.engine.Snapshot(userId.String(), kind); found {
		return string(sess.Stage)
	}
	return string(workflow.StageInit)
}

func (s *authoringService) CancelSession(userId uuid.UUID, kind string) (*dto.SendTurnResponse, error) {
	out, err := s.engine.Cancel(userId.String(), workflow.Kind(kind))
	if err != nil {
		return nil, err
	}
	return &dto.SendTurnResponse{
		Stage: string(out.Stage),
		Reply: out.Reply,
	}, nil
}

func (s *authoringService) GetSession(userId uuid.UUID, kind string) (*dto.SessionResponse, error) {
	sess, found := s.engine.Snapshot(userId.String(), workflow.Kind(kind))
	if !found {
		return nil, nil
	}

	facts := make(map[string]string, len(sess.Facts))
	for _, f := range sess.Facts {
		facts[f.Key] = f.Value
	}

	return &dto.SessionResponse{
		Kind:           string(sess.Kind),
		Stage:          string(sess.Stage),
		Facts:          facts,
		DraftTitle:     sess.DraftTitle,
		DraftText:      sess.DraftText,
		Verdict:        sess.Verdict,
		LastActivityAt: sess.LastActivityAt,
	}, nil
}

func (s *authoringService) ListArtifacts(ctx context.Context, userId uuid.UUID, kind string) ([]*dto.ArtifactResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OwnedBy{OwnerID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if kind != "" {
		specs = append(specs, specification.ByKind{Kind: kind})
	}

	artifacts, err := uow.ArtifactRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		result = append(result, toArtifactResponse(a))
	}
	return result, nil
}

func (s *authoringService) DeleteArtifact(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifact, err := uow.ArtifactRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return err
	}
	if artifact == nil {
		return ErrArtifactNotFound
	}

	// Retraction is best-effort: the page gets blanked if the host still
	// has it, the local record goes away regardless.
	if artifact.EditPath != "" && s.pagePublisher != nil && s.pagePublisher.Available() {
		if err := s.pagePublisher.Retract(ctx, artifact.EditPath); err != nil {
			s.sysLogger.Warn("AUTHORING", "Retract failed", map[string]interface{}{
				"artifact_id": artifact.Id.String(),
				"error":       err.Error(),
			})
		}
	}

	return uow.ArtifactRepository().Delete(ctx, artifact.Id)
}

// Finalize implements workflow.Finalizer. Publishing happens before the
// insert so a host failure leaves nothing half-saved; the engine retries
// the whole hand-off with the same draft.
func (s *authoringService) Finalize(ctx context.Context, sess *workflow.Session) (*workflow.FinalResult, error) {
	ownerId, err := uuid.Parse(sess.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", sess.OwnerID, err)
	}

	variant, err := workflow.VariantFor(sess.Kind)
	if err != nil {
		return nil, err
	}

	artifact := &entity.Artifact{
		Id:        uuid.New(),
		OwnerId:   ownerId,
		Kind:      string(sess.Kind),
		Title:     sess.DraftTitle,
		Content:   sess.DraftText,
		Safety:    toSafetySummary(sess),
		CreatedAt: time.Now(),
	}

	if variant.Publishes && s.pagePublisher != nil && s.pagePublisher.Available() {
		res, err := s.pagePublisher.Publish(ctx, artifact.Title, artifact.Content)
		if err != nil {
			return nil, fmt.Errorf("publish failed: %w", err)
		}
		artifact.ShareURL = res.URL
		artifact.EditPath = res.EditPath
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ArtifactRepository().Create(ctx, artifact); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sysLogger.Info("AUTHORING", "Artifact finalized", map[string]interface{}{
		"artifact_id": artifact.Id.String(),
		"owner_id":    ownerId.String(),
		"kind":        artifact.Kind,
		"published":   artifact.ShareURL != "",
	})

	if err := s.publisherService.PublishArtifact(ctx, &dto.PublishArtifactMessage{
		ArtifactId:  artifact.Id,
		NotifyEmail: sess.NotifyEmail,
	}); err != nil {
		s.sysLogger.Warn("AUTHORING", "Failed to emit artifact event", map[string]interface{}{
			"artifact_id": artifact.Id.String(),
			"error":       err.Error(),
		})
	}

	return &workflow.FinalResult{
		ArtifactID: artifact.Id.String(),
		ShareURL:   artifact.ShareURL,
	}, nil
}

func (s *authoringService) fetchArtifact(ctx context.Context, id string) (*entity.Artifact, error) {
	artifactId, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ArtifactRepository().FindOne(ctx, specification.ByID{ID: artifactId})
}

func toSafetySummary(sess *workflow.Session) *entity.SafetySummary {
	if sess.Verdict == nil {
		return nil
	}

	seen := make(map[string]bool)
	categories := make([]string, 0, len(sess.Verdict.Findings))
	for _, f := range sess.Verdict.Findings {
		c := string(f.Category)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}

	return &entity.SafetySummary{
		OverallScore:     sess.Verdict.OverallScore,
		WasBlocking:      sess.Verdict.IsBlocking,
		RiskAcknowledged: sess.RiskAcknowledged,
		Categories:       categories,
	}
}

func toArtifactResponse(a *entity.Artifact) *dto.ArtifactResponse {
	return &dto.ArtifactResponse{
		Id:        a.Id,
		Kind:      a.Kind,
		Title:     a.Title,
		Content:   a.Content,
		ShareURL:  a.ShareURL,
		Safety:    a.Safety,
		CreatedAt: a.CreatedAt,
	}
}
