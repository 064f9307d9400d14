package entity

import (
	"hseqaudit/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

// Model carries the snowflake id and the epoch-millisecond timestamps shared by
// every table.
type Model struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:milli"`
}

func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == 0 {
		m.ID = uid.Generate()
	}
	return nil
}
