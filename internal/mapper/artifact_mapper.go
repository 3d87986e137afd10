package mapper

import (
	"encoding/json"
	"time"

	"ai-coparenting-be/internal/entity"
	"ai-coparenting-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactMapper struct{}

func NewArtifactMapper() *ArtifactMapper {
	return &ArtifactMapper{}
}

func (m *ArtifactMapper) ToEntity(a *model.Artifact) *entity.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var safety *entity.SafetySummary
	if len(a.SafetySummary) > 0 {
		var s entity.SafetySummary
		if err := json.Unmarshal(a.SafetySummary, &s); err == nil {
			safety = &s
		}
	}

	return &entity.Artifact{
		Id:          a.Id,
		OwnerId:     a.OwnerId,
		Kind:        a.Kind,
		Title:       a.Title,
		Content:     a.Content,
		ShareURL:    a.ShareURL,
		EditPath:    a.EditPath,
		Safety:      safety,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   a.DeletedAt.Valid,
	}
}

func (m *ArtifactMapper) ToModel(a *entity.Artifact) *model.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var safety datatypes.JSON
	if a.Safety != nil {
		if raw, err := json.Marshal(a.Safety); err == nil {
			safety = raw
		}
	}

	return &model.Artifact{
		Id:            a.Id,
		OwnerId:       a.OwnerId,
		Kind:          a.Kind,
		Title:         a.Title,
		Content:       a.Content,
		ShareURL:      a.ShareURL,
		EditPath:      a.EditPath,
		SafetySummary: safety,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}
}

func (m *ArtifactMapper) ToEntities(artifacts []*model.Artifact) []*entity.Artifact {
	entities := make([]*entity.Artifact, len(artifacts))
	for i, a := range artifacts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
