package repository

import (
	"errors"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultAnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *DefaultAnalysisRepository {
	return &DefaultAnalysisRepository{db: db}
}

func (r *DefaultAnalysisRepository) FindByAuditID(auditID int64) (*entity.Analysis, error) {
	var analysis entity.Analysis
	err := r.db.Where("audit_id = ?", auditID).First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Upsert keeps a single analysis row per audit, replacing its content on re-runs.
func (r *DefaultAnalysisRepository) Upsert(analysis *entity.Analysis) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "audit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "risk_level", "recommendations", "legal_findings",
			"raw_response", "source", "degraded_reason", "updated_at",
		}),
	}).Create(analysis).Error
}
