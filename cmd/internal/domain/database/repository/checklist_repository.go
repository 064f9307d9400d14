package repository

import (
	"errors"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChecklistFilter struct {
	Norm   entity.Norm
	Clause string
}

type DefaultChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *DefaultChecklistRepository {
	return &DefaultChecklistRepository{db: db}
}

func (r *DefaultChecklistRepository) FindAll(filter ChecklistFilter) ([]*entity.ChecklistItem, error) {
	var items []*entity.ChecklistItem
	query := r.db.Order("norm").Order("clause").Order("code")
	if filter.Norm != "" {
		query = query.Where("norm = ?", filter.Norm)
	}
	if filter.Clause != "" {
		// "7" matches 7, 7.1, 7.1.2...
		query = query.Where("clause = ? OR clause LIKE ?", filter.Clause, filter.Clause+".%")
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DefaultChecklistRepository) FindByIDs(ids []int64) ([]*entity.ChecklistItem, error) {
	if len(ids) == 0 {
		return []*entity.ChecklistItem{}, nil
	}

	var items []*entity.ChecklistItem
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DefaultChecklistRepository) FindByCode(code string) (*entity.ChecklistItem, error) {
	var item entity.ChecklistItem
	err := r.db.Where("code = ?", code).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *DefaultChecklistRepository) Create(item *entity.ChecklistItem) error {
	return r.db.Create(item).Error
}

// UpsertByCode inserts new items and refreshes the text of existing ones,
// keeping their ids.
func (r *DefaultChecklistRepository) UpsertByCode(items []*entity.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"norm", "clause", "requirement", "verification_q", "legal_ref", "updated_at"}),
	}).CreateInBatches(items, 100).Error
}

func (r *DefaultChecklistRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entity.ChecklistItem{}).Count(&count).Error
	return count, err
}
