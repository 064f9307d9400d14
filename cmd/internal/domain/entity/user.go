package entity

// User is anyone acting on the platform, always bound to one company.
type User struct {
	Model
	Email     string  `gorm:"not null;uniqueIndex"`
	Name      string  `gorm:"not null"`
	Role      Role    `gorm:"not null;index"`
	CompanyID int64   `gorm:"not null;index"`
	Subject   string  `gorm:"index"` // identity provider "sub", empty for local users
	Active    bool    `gorm:"not null;default:true"`
	Company   Company `gorm:"foreignKey:CompanyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (u *User) Permissions() Permission {
	return PermissionsFor(u.Role)
}

// SameCompany is true when the user may see records of the given company.
func (u *User) SameCompany(companyID int64) bool {
	return u.Permissions().Has(PermissionAdministrator) || u.CompanyID == companyID
}
