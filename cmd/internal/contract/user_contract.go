package contract

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Name      string `json:"name" validate:"required,notblank,min=2,max=120"`
	Role      string `json:"role" validate:"required,oneof=ADMIN AUDITOR SUPERVISOR VIEWER"`
	CompanyID int64  `json:"companyId,string" validate:"required"`
	// Invite provisions the user on the identity provider as well.
	Invite bool `json:"invite"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UserResponse struct {
	ID          int64  `json:"id,string"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	CompanyID   int64  `json:"companyId,string"`
	Active      bool   `json:"active"`
	Permissions int64  `json:"permissions"`
	Invited     bool   `json:"invited"`
	CreatedAt   string `json:"createdAt"`
}

type SessionResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expiresAt"`
}
