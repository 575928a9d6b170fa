package postgres

import (
	"github.com/viralforge/invoicing-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Submissions ports.SubmissionRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Submissions: &submissionRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}
