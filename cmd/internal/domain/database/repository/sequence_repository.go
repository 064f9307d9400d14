package repository

import (
	"strconv"
	"strings"

	"hseqaudit/cmd/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultSequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *DefaultSequenceRepository {
	return &DefaultSequenceRepository{db: db}
}

// Next atomically increments the counter of scope and returns the new value.
// The increment and the read share one transaction, so the row lock taken by
// the UPDATE serializes concurrent callers.
func (r *DefaultSequenceRepository) Next(scope string) (int64, error) {
	var seq entity.CodeSequence
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.CodeSequence{Scope: scope, Value: 0}).Error
		if err != nil {
			return err
		}

		err = tx.Model(&entity.CodeSequence{}).
			Where("scope = ?", scope).
			UpdateColumn("value", gorm.Expr("value + 1")).Error
		if err != nil {
			return err
		}
		return tx.Where("scope = ?", scope).First(&seq).Error
	})
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// Advance raises the counter of scope to at least floor.
func (r *DefaultSequenceRepository) Advance(scope string, floor int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.CodeSequence{Scope: scope, Value: 0}).Error
		if err != nil {
			return err
		}
		return tx.Model(&entity.CodeSequence{}).
			Where("scope = ? AND value < ?", scope, floor).
			UpdateColumn("value", floor).Error
	})
}

// MaxCodeSuffix scans the codes of table that start with scope+"-" and returns
// the highest numeric suffix, 0 when none exists. It is used to reconcile a
// counter that lives outside the database.
func (r *DefaultSequenceRepository) MaxCodeSuffix(table, scope string) (int64, error) {
	var codes []string
	err := r.db.Table(table).
		Where("code LIKE ?", scope+"-%").
		Pluck("code", &codes).Error
	if err != nil {
		return 0, err
	}

	var highest int64
	for _, code := range codes {
		suffix := code[strings.LastIndex(code, "-")+1:]
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return highest, nil
}

func (r *DefaultSequenceRepository) CodeExists(table, code string) (bool, error) {
	var count int64
	err := r.db.Table(table).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}
