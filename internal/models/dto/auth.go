package dto

import (
	"time"

	"github.com/hongminglow/storefront/internal/models"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User *models.User `json:"user"`
	Role models.Role  `json:"role"`
}

type SignInResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
	Role      models.Role `json:"role"`
}
