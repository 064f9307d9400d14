package service

import (
	"context"
	"net/http"
	"testing"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"
)

func TestLogin_IssuesResolvableSession(t *testing.T) {
	env := newTestEnv(t)

	session, apierr := env.users.Login(&contract.LoginRequest{Email: "  Auditor.Demo@HSEQAudit.cl "})
	if apierr != nil {
		t.Fatalf("login failed with %d", apierr.Code())
	}
	if session.Token == "" || session.ExpiresAt == "" {
		t.Fatalf("incomplete session %+v", session)
	}

	data, err := env.tokens.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}

	user, apierr := env.users.ResolveSession(data)
	if apierr != nil {
		t.Fatalf("resolve failed with %d", apierr.Code())
	}
	if user.ID != env.auditor.ID {
		t.Errorf("resolved user %d, want %d", user.ID, env.auditor.ID)
	}
}

func TestLogin_UnknownAndInactive(t *testing.T) {
	env := newTestEnv(t)

	if _, apierr := env.users.Login(&contract.LoginRequest{Email: "nadie@hseqaudit.cl"}); apierr != apierror.InvalidAuthTokenError {
		t.Errorf("unknown email: got %#v", apierr)
	}

	inactive := env.newUser(t, entity.RoleViewer, env.companyID, "baja@andes.cl")
	if err := env.db.Model(inactive).Update("active", false).Error; err != nil {
		t.Fatal(err)
	}
	if _, apierr := env.users.Login(&contract.LoginRequest{Email: "baja@andes.cl"}); apierr != apierror.InactiveUserError {
		t.Errorf("inactive user: got %#v", apierr)
	}
	if _, apierr := env.users.ResolveSession(&utils.TokenData{UserID: inactive.ID}); apierr != apierror.InactiveUserError {
		t.Errorf("inactive session: got %#v", apierr)
	}
}

func TestResolveSession_ByEmailClaim(t *testing.T) {
	env := newTestEnv(t)

	user, apierr := env.users.ResolveSession(&utils.TokenData{Sub: "idp-subject", Email: DemoAdminMail})
	if apierr != nil {
		t.Fatalf("resolve failed with %d", apierr.Code())
	}
	if user.ID != env.admin.ID {
		t.Errorf("resolved %d, want admin %d", user.ID, env.admin.ID)
	}
}

func TestCreateUser_Policy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := &contract.CreateUserRequest{Email: "Nuevo@Andes.cl", Name: "Nuevo Auditor", Role: "AUDITOR", CompanyID: env.companyID}
	if _, apierr := env.users.CreateUser(ctx, env.auditor, req); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("auditor creating users: got %v", apierr)
	}

	created, apierr := env.users.CreateUser(ctx, env.admin, req)
	if apierr != nil {
		t.Fatalf("create failed with %d", apierr.Code())
	}
	if created.Email != "nuevo@andes.cl" || created.Invited {
		t.Errorf("unexpected user %+v", created)
	}

	if _, apierr := env.users.CreateUser(ctx, env.admin, req); apierr != apierror.EmailTakenError {
		t.Errorf("duplicate email: got %#v", apierr)
	}

	users, _ := env.users.GetUsers(env.auditor)
	if len(users) != 3 {
		t.Errorf("%d users in the demo company, want 3", len(users))
	}
}

func TestCreateCompany(t *testing.T) {
	env := newTestEnv(t)

	company, apierr := env.companies.CreateCompany(env.admin, &contract.CreateCompanyRequest{Name: "Minera Norte", RUT: "12.345.678-5"})
	if apierr != nil {
		t.Fatalf("create failed with %d", apierr.Code())
	}
	if company.RUT != "12.345.678-5" {
		t.Errorf("rut = %s", company.RUT)
	}

	if _, apierr := env.companies.CreateCompany(env.admin, &contract.CreateCompanyRequest{Name: "Otra", RUT: "123456785"}); apierr != apierror.RUTTakenError {
		t.Errorf("duplicate rut: got %#v", apierr)
	}

	_, apierr = env.companies.CreateCompany(env.admin, &contract.CreateCompanyRequest{Name: "Mala", RUT: "12.345.678-9"})
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Errorf("bad check digit: got %v", apierr)
	}

	if _, apierr := env.companies.CreateCompany(env.auditor, &contract.CreateCompanyRequest{Name: "X", RUT: "761234560"}); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("auditor creating companies: got %v", apierr)
	}

	visible, _ := env.companies.GetCompanies(env.auditor)
	if len(visible) != 1 {
		t.Errorf("auditor sees %d companies, want only their own", len(visible))
	}
	all, _ := env.companies.GetCompanies(env.admin)
	if len(all) != 2 {
		t.Errorf("admin sees %d companies, want 2", len(all))
	}
}
