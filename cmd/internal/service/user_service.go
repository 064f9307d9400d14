package service

import (
	"context"
	"strings"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	cognitoclient "hseqaudit/cmd/internal/infrastructure/aws/cognito"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

type UserRepository interface {
	FindAll(companyID *int64) ([]*entity.User, error)
	FindByID(id int64) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
	FindBySubject(sub string) (*entity.User, error)
	Count() (int64, error)
	Create(user *entity.User) error
	Save(user *entity.User) error
}

// SessionIssuer signs local sessions.
type SessionIssuer interface {
	Issue(user *entity.User) (string, time.Time, error)
}

type DefaultUserService struct {
	UserRepo    UserRepository
	CompanyRepo CompanyRepository
	Validate    *validator.Validate
	// Cognito is nil when identity provider invitations are not configured.
	Cognito    cognitoclient.Inviter
	UserPolicy *policy.UserPolicy
	Sessions   SessionIssuer
}

func NewUserService(
	userRepo UserRepository,
	companyRepo CompanyRepository,
	validate *validator.Validate,
	cogClient cognitoclient.Inviter,
	userPolicy *policy.UserPolicy,
	sessions SessionIssuer,
) *DefaultUserService {
	return &DefaultUserService{
		UserRepo:    userRepo,
		CompanyRepo: companyRepo,
		Validate:    validate,
		Cognito:     cogClient,
		UserPolicy:  userPolicy,
		Sessions:    sessions,
	}
}

func (u *DefaultUserService) GetUsers(actor *entity.User) ([]*contract.UserResponse, apierror.ErrorResponse) {
	if perr := u.UserPolicy.CanListUsers(actor); perr != nil {
		return nil, perr
	}

	var scope *int64
	if !actor.Permissions().Has(entity.PermissionAdministrator) {
		scope = &actor.CompanyID
	}

	users, err := u.UserRepo.FindAll(scope)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch users: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.UserResponse, len(users))
	for i, user := range users {
		resp[i] = toUserResponse(user)
	}
	return resp, nil
}

// CreateUser registers a user and, when asked to and configured, invites them
// through Cognito so they can sign in with the identity provider.
func (u *DefaultUserService) CreateUser(ctx context.Context, actor *entity.User, req *contract.CreateUserRequest) (*contract.UserResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	utils.Sanitize(req)
	req.Email = strings.ToLower(req.Email)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if perr := u.UserPolicy.CanCreateUser(actor, entity.Role(req.Role), req.CompanyID); perr != nil {
		return nil, perr
	}

	company, err := u.CompanyRepo.FindByID(req.CompanyID)
	if err != nil {
		log.Errorf("failed to fetch company %d: %v", req.CompanyID, err)
		return nil, apierror.InternalServerError
	}
	if company == nil {
		return nil, apierror.NewFieldError("companyId", "Company does not exist")
	}

	existing, err := u.UserRepo.FindByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}
	if existing != nil {
		return nil, apierror.EmailTakenError
	}

	user := &entity.User{
		Email:     req.Email,
		Name:      req.Name,
		Role:      entity.Role(req.Role),
		CompanyID: req.CompanyID,
		Active:    true,
	}

	if req.Invite && u.Cognito != nil {
		sub, err := u.Cognito.InviteUser(ctx, user.Email, user.Name)
		if err != nil {
			config.LogError(log, "user_service", "CreateUser", "Inviting user through Cognito", user.Email, err)
			return nil, apierror.IdentityProviderError
		}
		user.Subject = sub
	}

	if err := u.UserRepo.Create(user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apierror.EmailTakenError
		}
		log.Errorf("failed to create user: %v", err)
		return nil, apierror.InternalServerError
	}
	return toUserResponse(user), nil
}

// Login issues a local session for an existing active user. Identity provider
// users may also present their own tokens instead.
func (u *DefaultUserService) Login(req *contract.LoginRequest) (*contract.SessionResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	req.Email = strings.ToLower(req.Email)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(req.Email)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch user from database: %v", err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.InvalidAuthTokenError
	}

	if !user.Active {
		return nil, apierror.InactiveUserError
	}

	token, exp, err := u.Sessions.Issue(user)
	if err != nil {
		config.GetLogger().Errorf("failed to sign session for user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.SessionResponse{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
	}, nil
}

func (u *DefaultUserService) Me(actor *entity.User) *contract.UserResponse {
	return toUserResponse(actor)
}

// ResolveSession maps verified token claims to an active user: local sessions
// by id, identity provider tokens by subject and then by email.
func (u *DefaultUserService) ResolveSession(data *utils.TokenData) (*entity.User, apierror.ErrorResponse) {
	var user *entity.User
	var err error

	switch {
	case data.UserID != 0:
		user, err = u.UserRepo.FindByID(data.UserID)
	case data.Sub != "":
		user, err = u.UserRepo.FindBySubject(data.Sub)
		if err == nil && user == nil && data.Email != "" {
			user, err = u.UserRepo.FindByEmail(strings.ToLower(data.Email))
		}
	case data.Email != "":
		user, err = u.UserRepo.FindByEmail(strings.ToLower(data.Email))
	}

	if err != nil {
		config.GetLogger().Errorf("failed to resolve session user: %v", err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.InvalidAuthTokenError
	}

	if !user.Active {
		return nil, apierror.InactiveUserError
	}
	return user, nil
}

func (u *DefaultUserService) CountUsers() (int64, apierror.ErrorResponse) {
	count, err := u.UserRepo.Count()
	if err != nil {
		config.GetLogger().Errorf("failed to count users: %v", err)
		return 0, apierror.InternalServerError
	}
	return count, nil
}

func toUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		CompanyID:   user.CompanyID,
		Active:      user.Active,
		Permissions: int64(user.Permissions()),
		Invited:     user.Subject != "",
		CreatedAt:   utils.FormatEpoch(user.CreatedAt),
	}
}
