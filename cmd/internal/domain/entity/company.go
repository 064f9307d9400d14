package entity

type Company struct {
	Model
	Name     string `gorm:"not null"`
	RUT      string `gorm:"column:rut;not null;uniqueIndex"` // normalized, e.g. 76123456K
	Industry string
}
