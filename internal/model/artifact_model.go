package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Artifact struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind          string         `gorm:"type:varchar(32);not null;index"`
	Title         string         `gorm:"type:varchar(255);not null"`
	Content       string         `gorm:"type:text"`
	ShareURL      string         `gorm:"type:varchar(512)"`
	EditPath      string         `gorm:"type:varchar(255)"`
	SafetySummary datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Artifact) TableName() string {
	return "artifacts"
}
