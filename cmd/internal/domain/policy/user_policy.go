package policy

import (
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils/apierror"
)

const (
	admin        = entity.PermissionAdministrator
	mngCompanies = entity.PermissionManageCompanies
	viewRecords  = entity.PermissionViewRecords
)

// UserPolicy encapsulates all business rules for user and company manipulation.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type UserPolicy struct{}

func NewUserPolicy() *UserPolicy {
	return &UserPolicy{}
}

// CanListUsers lets anyone with read access list their own company's users.
func (p *UserPolicy) CanListUsers(actor *entity.User) apierror.ErrorResponse {
	if !actor.Permissions().HasEffective(viewRecords) {
		return permError(viewRecords)
	}
	return nil
}

// CanCreateUser checks if 'actor' can register a user with 'role' in 'companyID'.
func (p *UserPolicy) CanCreateUser(actor *entity.User, role entity.Role, companyID int64) apierror.ErrorResponse {
	// Rule 1: only company managers register users
	if !actor.Permissions().HasEffective(mngCompanies) {
		return permError(mngCompanies)
	}

	// Rule 2: administrators are only created by administrators
	if role == entity.RoleAdmin && !actor.Permissions().Has(admin) {
		return forbiddenError("cannot grant administrator privileges")
	}

	// Rule 3: non administrators stay inside their company
	if !actor.SameCompany(companyID) {
		return forbiddenError("cannot register users for another company")
	}
	return nil
}

func (p *UserPolicy) CanManageCompanies(actor *entity.User) apierror.ErrorResponse {
	if !actor.Permissions().HasEffective(mngCompanies) {
		return permError(mngCompanies)
	}
	return nil
}

// CanSeed allows the anonymous bootstrap seed only while no user exists.
func (p *UserPolicy) CanSeed(actor *entity.User, userCount int64) apierror.ErrorResponse {
	if actor == nil {
		if userCount == 0 {
			return nil
		}
		return apierror.SeedForbiddenError
	}
	if !actor.Permissions().HasEffective(mngCompanies) {
		return apierror.SeedForbiddenError
	}
	return nil
}
