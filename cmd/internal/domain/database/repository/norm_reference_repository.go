package repository

import (
	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultNormReferenceRepository struct {
	db *gorm.DB
}

func NewNormReferenceRepository(db *gorm.DB) *DefaultNormReferenceRepository {
	return &DefaultNormReferenceRepository{db: db}
}

func (r *DefaultNormReferenceRepository) FindAll() ([]*entity.NormReference, error) {
	var refs []*entity.NormReference
	if err := r.db.Order("name").Order("article").Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *DefaultNormReferenceRepository) UpsertMany(refs []*entity.NormReference) error {
	if len(refs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "article"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "keywords", "updated_at"}),
	}).Create(refs).Error
}
