package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/replaygames/replay-backend/pkg/enums"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     enums.UserRole `json:"role"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the account shape returned to clients.
type UserSummary struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// LoginResponse carries the minted token plus the account summary.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}
