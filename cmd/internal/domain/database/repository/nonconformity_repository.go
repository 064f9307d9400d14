package repository

import (
	"errors"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NCFilter struct {
	AuditID   *int64
	CompanyID *int64
	Severity  entity.Severity
	Status    entity.NCStatus
}

type NCStats struct {
	Total      int64
	BySeverity map[entity.Severity]int64
	ByStatus   map[entity.NCStatus]int64
	Overdue    int64
}

type DefaultNCRepository struct {
	db *gorm.DB
}

func NewNCRepository(db *gorm.DB) *DefaultNCRepository {
	return &DefaultNCRepository{db: db}
}

func (r *DefaultNCRepository) FindAll(filter NCFilter) ([]*entity.NonConformity, error) {
	var ncs []*entity.NonConformity
	query := r.scoped(filter.AuditID, filter.CompanyID).
		Preload("Finding.ChecklistItem").
		Preload("Finding.Audit").
		Preload("Actions").
		Order("non_conformities.created_at DESC").
		Order("non_conformities.id DESC")
	if filter.Severity != "" {
		query = query.Where("non_conformities.severity = ?", filter.Severity)
	}
	if filter.Status != "" {
		query = query.Where("non_conformities.status = ?", filter.Status)
	}

	if err := query.Find(&ncs).Error; err != nil {
		return nil, err
	}
	return ncs, nil
}

func (r *DefaultNCRepository) FindByID(id int64) (*entity.NonConformity, error) {
	var nc entity.NonConformity
	err := r.db.
		Preload("Finding.ChecklistItem").
		Preload("Finding.Audit").
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at").Order("id")
		}).
		First(&nc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &nc, nil
}

func (r *DefaultNCRepository) FindByCode(code string) (*entity.NonConformity, error) {
	var nc entity.NonConformity
	err := r.db.Where("code = ?", code).First(&nc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &nc, nil
}

func (r *DefaultNCRepository) Create(nc *entity.NonConformity) error {
	return r.db.Omit(clause.Associations).Create(nc).Error
}

func (r *DefaultNCRepository) Save(nc *entity.NonConformity) error {
	return r.db.Omit(clause.Associations).Save(nc).Error
}

func (r *DefaultNCRepository) FindActionByID(id int64) (*entity.CAPAAction, error) {
	var action entity.CAPAAction
	err := r.db.First(&action, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &action, nil
}

// CreateAction stores the action and moves its NC to IN_PROGRESS atomically.
func (r *DefaultNCRepository) CreateAction(action *entity.CAPAAction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(action).Error; err != nil {
			return err
		}
		return tx.Model(&entity.NonConformity{}).
			Where("id = ?", action.NonConformityID).
			Update("status", entity.NCInProgress).Error
	})
}

func (r *DefaultNCRepository) SaveAction(action *entity.CAPAAction) error {
	return r.db.Save(action).Error
}

// CountOpenActions counts the actions still blocking the NC from closing.
func (r *DefaultNCRepository) CountOpenActions(ncID int64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.CAPAAction{}).
		Where("non_conformity_id = ?", ncID).
		Where("status NOT IN ?", []entity.CAPAStatus{entity.CAPACompleted, entity.CAPAVerified}).
		Count(&count).Error
	return count, err
}

// Close marks the NC closed only if no open action exists at commit time.
// It returns false when an open action blocked it.
func (r *DefaultNCRepository) Close(ncID int64, closedAt int64) (bool, error) {
	closed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		err := tx.Model(&entity.CAPAAction{}).
			Where("non_conformity_id = ?", ncID).
			Where("status NOT IN ?", []entity.CAPAStatus{entity.CAPACompleted, entity.CAPAVerified}).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return nil
		}

		res := tx.Model(&entity.NonConformity{}).
			Where("id = ? AND status <> ?", ncID, entity.NCClosed).
			Updates(map[string]any{"status": entity.NCClosed, "closed_at": closedAt})
		if res.Error != nil {
			return res.Error
		}
		closed = res.RowsAffected == 1
		return nil
	})
	return closed, err
}

type severityCount struct {
	Severity string
	Count    int64
}

type ncStatusCount struct {
	Status string
	Count  int64
}

func (r *DefaultNCRepository) Stats(companyID *int64, now int64) (*NCStats, error) {
	stats := &NCStats{
		BySeverity: make(map[entity.Severity]int64),
		ByStatus:   make(map[entity.NCStatus]int64),
	}

	var bySeverity []severityCount
	err := r.scoped(nil, companyID).
		Select("non_conformities.severity AS severity, COUNT(*) AS count").
		Group("non_conformities.severity").
		Scan(&bySeverity).Error
	if err != nil {
		return nil, err
	}
	for _, row := range bySeverity {
		stats.BySeverity[entity.Severity(row.Severity)] = row.Count
		stats.Total += row.Count
	}

	var byStatus []ncStatusCount
	err = r.scoped(nil, companyID).
		Select("non_conformities.status AS status, COUNT(*) AS count").
		Group("non_conformities.status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[entity.NCStatus(row.Status)] = row.Count
	}

	err = r.scoped(nil, companyID).
		Where("non_conformities.status <> ? AND non_conformities.due_date < ?", entity.NCClosed, now).
		Count(&stats.Overdue).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CountOpen counts NCs that are not closed, optionally of one severity only.
func (r *DefaultNCRepository) CountOpen(companyID *int64, severity entity.Severity) (int64, error) {
	var count int64
	query := r.scoped(nil, companyID).Where("non_conformities.status <> ?", entity.NCClosed)
	if severity != "" {
		query = query.Where("non_conformities.severity = ?", severity)
	}
	err := query.Count(&count).Error
	return count, err
}

type auditCount struct {
	AuditID int64
	Count   int64
}

// CountByAudits counts NCs per audit in one grouped query.
func (r *DefaultNCRepository) CountByAudits(auditIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(auditIDs))
	if len(auditIDs) == 0 {
		return counts, nil
	}

	var rows []auditCount
	err := r.db.Model(&entity.NonConformity{}).
		Select("findings.audit_id AS audit_id, COUNT(*) AS count").
		Joins("JOIN findings ON findings.id = non_conformities.finding_id").
		Where("findings.audit_id IN ?", auditIDs).
		Group("findings.audit_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuditID] = row.Count
	}
	return counts, nil
}

// FindRecentCritical returns the newest critical NCs that are not closed.
func (r *DefaultNCRepository) FindRecentCritical(companyID *int64, limit int) ([]*entity.NonConformity, error) {
	var ncs []*entity.NonConformity
	err := r.scoped(nil, companyID).
		Preload("Finding.Audit").
		Preload("Finding.ChecklistItem").
		Where("non_conformities.severity = ? AND non_conformities.status <> ?", entity.SeverityCritical, entity.NCClosed).
		Order("non_conformities.created_at DESC").
		Limit(limit).
		Find(&ncs).Error
	if err != nil {
		return nil, err
	}
	return ncs, nil
}

// FindOverdueUnnotified returns overdue NCs that never triggered an overdue notification.
func (r *DefaultNCRepository) FindOverdueUnnotified(now int64, limit int) ([]*entity.NonConformity, error) {
	var ncs []*entity.NonConformity
	err := r.db.
		Preload("Finding.Audit").
		Where("status <> ? AND due_date < ? AND overdue_notified_at IS NULL", entity.NCClosed, now).
		Order("due_date").
		Limit(limit).
		Find(&ncs).Error
	if err != nil {
		return nil, err
	}
	return ncs, nil
}

func (r *DefaultNCRepository) MarkOverdueNotified(id int64, at int64) error {
	return r.db.Model(&entity.NonConformity{}).
		Where("id = ?", id).
		UpdateColumn("overdue_notified_at", at).Error
}

// scoped starts a query on non_conformities joined to its finding (and audit
// when a company scope is requested).
func (r *DefaultNCRepository) scoped(auditID, companyID *int64) *gorm.DB {
	query := r.db.Model(&entity.NonConformity{})
	if auditID == nil && companyID == nil {
		return query
	}

	query = query.Joins("JOIN findings ON findings.id = non_conformities.finding_id")
	if auditID != nil {
		query = query.Where("findings.audit_id = ?", *auditID)
	}
	if companyID != nil {
		query = query.
			Joins("JOIN audits ON audits.id = findings.audit_id").
			Where("audits.company_id = ?", *companyID)
	}
	return query
}
