package policy

import (
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils/apierror"
)

// RecordPolicy encapsulates the visibility rules of company owned records
// (audits and everything hanging from them).
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type RecordPolicy struct{}

func NewRecordPolicy() *RecordPolicy {
	return &RecordPolicy{}
}

// Require checks that actor holds perm, anonymous callers get a 401.
func (p *RecordPolicy) Require(actor *entity.User, perm entity.Permission) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}
	if !actor.Permissions().HasEffective(perm) {
		return permError(perm)
	}
	return nil
}

// CanSeeCompany hides other companies' records behind a 404 so ids cannot be probed.
func (p *RecordPolicy) CanSeeCompany(actor *entity.User, companyID int64) apierror.ErrorResponse {
	if actor == nil || !actor.SameCompany(companyID) {
		return apierror.NotFoundError
	}
	return nil
}

func (p *RecordPolicy) CanSeeAudit(actor *entity.User, audit *entity.Audit) apierror.ErrorResponse {
	if audit == nil {
		return apierror.NotFoundError
	}
	return p.CanSeeCompany(actor, audit.CompanyID)
}

// CanModifyAudit combines the permission check with visibility.
func (p *RecordPolicy) CanModifyAudit(actor *entity.User, audit *entity.Audit, perm entity.Permission) apierror.ErrorResponse {
	if perr := p.CanSeeAudit(actor, audit); perr != nil {
		return perr
	}
	return p.Require(actor, perm)
}

// ScopeCompany narrows a requested company filter to what actor may see.
// Administrators keep the requested filter (nil meaning every company).
func (p *RecordPolicy) ScopeCompany(actor *entity.User, requested *int64) (*int64, apierror.ErrorResponse) {
	if actor.Permissions().Has(entity.PermissionAdministrator) {
		return requested, nil
	}
	if requested != nil && *requested != actor.CompanyID {
		return nil, apierror.NotFoundError
	}
	own := actor.CompanyID
	return &own, nil
}

func permError(perm entity.Permission) *apierror.APIError {
	return apierror.NewPermissionError(int64(perm))
}

func forbiddenError(msg string) *apierror.APIError {
	return apierror.NewForbiddenError(msg)
}
