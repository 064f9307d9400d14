package entity

// Permission is a custom type for bitwise flags
type Permission int64

const (
	// PermissionAdministrator grants god-mode.
	PermissionAdministrator Permission = 1 << iota

	// PermissionViewRecords allows reading audits, findings, NCs and dashboards.
	PermissionViewRecords

	// PermissionManageAudits allows creating, updating, completing and deleting audits.
	PermissionManageAudits

	// PermissionRecordFindings allows evaluating checklist items and uploading evidence.
	PermissionRecordFindings

	// PermissionManageNCs allows raising non-conformities and planning CAPA actions.
	PermissionManageNCs

	// PermissionCloseNCs allows closing non-conformities and verifying CAPA actions.
	PermissionCloseNCs

	// PermissionRunAnalysis allows calling the analysis endpoints.
	PermissionRunAnalysis

	// PermissionManageChecklist allows adding checklist items.
	PermissionManageChecklist

	// PermissionExportReports allows downloading spreadsheet reports.
	PermissionExportReports

	// PermissionManageCompanies allows registering companies and users across
	// every company, and seeding demo data.
	PermissionManageCompanies
)

var rolePermissions = map[Role]Permission{
	RoleViewer: PermissionViewRecords,
	RoleAuditor: PermissionViewRecords |
		PermissionManageAudits |
		PermissionRecordFindings |
		PermissionManageNCs |
		PermissionRunAnalysis,
	RoleSupervisor: PermissionViewRecords |
		PermissionManageAudits |
		PermissionRecordFindings |
		PermissionManageNCs |
		PermissionCloseNCs |
		PermissionRunAnalysis |
		PermissionManageChecklist |
		PermissionExportReports,
	RoleAdmin: PermissionAdministrator,
}

// PermissionsFor returns the bitmask granted to a role, zero for unknown roles.
func PermissionsFor(role Role) Permission {
	return rolePermissions[role]
}

// Has checks if the permission bitmask contains ALL bits
// requested in 'target'. It ignores Administrator status.
func (p Permission) Has(target Permission) bool {
	return (p & target) == target
}

// HasAny returns true if the user has ANY of the target permissions
func (p Permission) HasAny(target Permission) bool {
	return (p & target) > 0
}

// HasEffective checks if the permission bitmask contains the target bits
// OR if the permission includes Administrator
func (p Permission) HasEffective(target Permission) bool {
	return p.Has(PermissionAdministrator) || p.Has(target)
}
