package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Username   string  `json:"username"    validate:"required,min=1,max=150"`
	Name       string  `json:"name"        validate:"required,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Password   string  `json:"password"    validate:"required,min=8"`
	Role       string  `json:"role"        validate:"required,oneof=staff supervisor admin"`
	BusinessID *string `json:"business_id" validate:"omitempty,uuid"`
}

type UpdateUserRequest struct {
	Name       string  `json:"name"        validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Role       string  `json:"role"        validate:"omitempty,oneof=staff supervisor admin"`
	BusinessID *string `json:"business_id" validate:"omitempty,uuid"`
	Password   string  `json:"password"    validate:"omitempty,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Name       string  `json:"name"`
	Email      *string `json:"email"`
	Role       string  `json:"role"`
	BusinessID *string `json:"business_id"`
	Active     bool    `json:"active"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}
