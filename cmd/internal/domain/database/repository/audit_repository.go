package repository

import (
	"errors"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditFilter struct {
	CompanyID *int64
	Status    entity.AuditStatus
	Norm      entity.Norm
	Page      int
	PageSize  int
}

type DefaultAuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *DefaultAuditRepository {
	return &DefaultAuditRepository{db: db}
}

// FindAll returns one page of audits, newest schedule first, plus the total
// number of audits matching the filter.
func (r *DefaultAuditRepository) FindAll(filter AuditFilter) ([]*entity.Audit, int64, error) {
	query := r.db.Model(&entity.Audit{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Norm != "" {
		// norms are stored space separated and no norm name contains another
		query = query.Where("norms LIKE ?", "%"+string(filter.Norm)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var audits []*entity.Audit
	err := query.
		Preload("Company").
		Preload("Auditor").
		Order("scheduled_at DESC").
		Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&audits).Error
	if err != nil {
		return nil, 0, err
	}
	return audits, total, nil
}

func (r *DefaultAuditRepository) FindByID(id int64) (*entity.Audit, error) {
	var audit entity.Audit
	err := r.db.First(&audit, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &audit, nil
}

// FindDetailed loads the audit with its company, auditor, analysis and every
// finding joined to its checklist item and NC.
func (r *DefaultAuditRepository) FindDetailed(id int64) (*entity.Audit, error) {
	var audit entity.Audit
	err := r.db.
		Preload("Company").
		Preload("Auditor").
		Preload("Analysis").
		Preload("Findings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at").Order("id")
		}).
		Preload("Findings.ChecklistItem").
		Preload("Findings.NC").
		Preload("Findings.NC.Actions").
		First(&audit, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &audit, nil
}

// FindRecent returns the most recently updated audits.
func (r *DefaultAuditRepository) FindRecent(companyID *int64, limit int) ([]*entity.Audit, error) {
	var audits []*entity.Audit
	query := r.db.Preload("Company").Order("updated_at DESC").Limit(limit)
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}

	if err := query.Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *DefaultAuditRepository) CountByStatus(companyID *int64) (map[entity.AuditStatus]int64, error) {
	var rows []statusCount
	query := r.db.Model(&entity.Audit{}).Select("status, COUNT(*) AS count").Group("status")
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entity.AuditStatus]int64, len(rows))
	for _, row := range rows {
		counts[entity.AuditStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *DefaultAuditRepository) Create(audit *entity.Audit) error {
	return r.db.Omit(clause.Associations).Create(audit).Error
}

func (r *DefaultAuditRepository) Save(audit *entity.Audit) error {
	return r.db.Omit(clause.Associations).Save(audit).Error
}

// MarkInProgress moves a DRAFT audit to IN_PROGRESS, leaving any other status alone.
func (r *DefaultAuditRepository) MarkInProgress(id int64) error {
	return r.db.Model(&entity.Audit{}).
		Where("id = ? AND status = ?", id, entity.AuditDraft).
		Update("status", entity.AuditInProgress).Error
}

func (r *DefaultAuditRepository) UpdateStatus(id int64, status entity.AuditStatus) error {
	return r.db.Model(&entity.Audit{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete removes the audit and everything hanging from it. Children are
// deleted explicitly since sqlite does not enforce foreign keys by default.
func (r *DefaultAuditRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		findingIDs := tx.Model(&entity.Finding{}).Select("id").Where("audit_id = ?", id)
		ncIDs := tx.Model(&entity.NonConformity{}).Select("id").Where("finding_id IN (?)", findingIDs)

		if err := tx.Where("non_conformity_id IN (?)", ncIDs).Delete(&entity.CAPAAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("finding_id IN (?)", findingIDs).Delete(&entity.NonConformity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("audit_id = ?", id).Delete(&entity.Finding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("audit_id = ?", id).Delete(&entity.Analysis{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Audit{}, id).Error
	})
}
