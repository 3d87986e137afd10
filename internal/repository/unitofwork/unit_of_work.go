package unitofwork

import (
	"context"

	"ai-coparenting-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ArtifactRepository() contract.ArtifactRepository
}
