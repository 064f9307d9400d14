package repository

import (
	"errors"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FindingFilter struct {
	AuditID   *int64
	Compliant *bool
	CompanyID *int64
}

// FindingCounts is the raw material of a compliance summary.
type FindingCounts struct {
	Total        int64
	Compliant    int64
	NonCompliant int64
}

// NormCompliance is one evaluated finding reduced to its norm and result.
type NormCompliance struct {
	Norm      entity.Norm
	Compliant bool
}

type DefaultFindingRepository struct {
	db *gorm.DB
}

func NewFindingRepository(db *gorm.DB) *DefaultFindingRepository {
	return &DefaultFindingRepository{db: db}
}

func (r *DefaultFindingRepository) FindAll(filter FindingFilter) ([]*entity.Finding, error) {
	var findings []*entity.Finding
	query := r.db.Preload("ChecklistItem").Preload("NC").Order("findings.created_at").Order("findings.id")
	if filter.AuditID != nil {
		query = query.Where("findings.audit_id = ?", *filter.AuditID)
	}
	if filter.Compliant != nil {
		query = query.Where("findings.compliant = ?", *filter.Compliant)
	}
	if filter.CompanyID != nil {
		query = query.
			Joins("JOIN audits ON audits.id = findings.audit_id").
			Where("audits.company_id = ?", *filter.CompanyID)
	}

	if err := query.Find(&findings).Error; err != nil {
		return nil, err
	}
	return findings, nil
}

// FindByID loads the finding with its checklist item, audit and NC.
func (r *DefaultFindingRepository) FindByID(id int64) (*entity.Finding, error) {
	var finding entity.Finding
	err := r.db.
		Preload("ChecklistItem").
		Preload("Audit").
		Preload("NC").
		First(&finding, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &finding, nil
}

func (r *DefaultFindingRepository) Create(finding *entity.Finding) error {
	return r.db.Omit(clause.Associations).Create(finding).Error
}

// UpsertMany records a batch of evaluations; re-evaluating an item of the
// same audit overwrites the previous result.
func (r *DefaultFindingRepository) UpsertMany(findings []*entity.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	return r.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audit_id"}, {Name: "checklist_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"compliant", "comment", "evidence", "updated_at"}),
	}).CreateInBatches(findings, 100).Error
}

func (r *DefaultFindingRepository) Save(finding *entity.Finding) error {
	return r.db.Omit(clause.Associations).Save(finding).Error
}

// Delete removes the finding together with its NC and CAPA actions.
func (r *DefaultFindingRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ncIDs := tx.Model(&entity.NonConformity{}).Select("id").Where("finding_id = ?", id)
		if err := tx.Where("non_conformity_id IN (?)", ncIDs).Delete(&entity.CAPAAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("finding_id = ?", id).Delete(&entity.NonConformity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Finding{}, id).Error
	})
}

func (r *DefaultFindingRepository) CountByAudit(auditID int64) (*FindingCounts, error) {
	var counts FindingCounts
	err := r.db.Model(&entity.Finding{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN compliant = ? THEN 1 ELSE 0 END), 0) AS compliant, "+
				"COALESCE(SUM(CASE WHEN compliant = ? THEN 1 ELSE 0 END), 0) AS non_compliant",
			true, false).
		Where("audit_id = ?", auditID).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// EvaluatedByNorm returns every evaluated finding reduced to (norm, result),
// optionally restricted to one company.
func (r *DefaultFindingRepository) EvaluatedByNorm(companyID *int64) ([]NormCompliance, error) {
	var rows []NormCompliance
	query := r.db.Model(&entity.Finding{}).
		Select("checklist_items.norm AS norm, findings.compliant AS compliant").
		Joins("JOIN checklist_items ON checklist_items.id = findings.checklist_item_id").
		Where("findings.compliant IS NOT NULL")
	if companyID != nil {
		query = query.
			Joins("JOIN audits ON audits.id = findings.audit_id").
			Where("audits.company_id = ?", *companyID)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
