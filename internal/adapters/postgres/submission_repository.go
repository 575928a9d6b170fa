package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
	"gorm.io/gorm"
)

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Record(ctx context.Context, submission domain.Submission) error {
	row := toSubmissionModel(submission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: submission %s exists", domain.ErrConflict, submission.SubmissionID)
		}
		return err
	}
	return nil
}

func (r *submissionRepository) List(ctx context.Context, query ports.SubmissionQuery) ([]domain.Submission, int, error) {
	tx := r.db.WithContext(ctx).Model(&submissionModel{}).Where("tenant_id = ?", query.TenantID)
	if query.Outcome != "" {
		tx = tx.Where("outcome = ?", query.Outcome)
	}
	if query.Operation != "" {
		tx = tx.Where("operation = ?", query.Operation)
	}
	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []submissionModel
	page := tx.Order("created_at desc").Offset(query.Offset)
	if query.Limit > 0 {
		page = page.Limit(query.Limit)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromSubmissionModel(row))
	}
	return out, int(total), nil
}
