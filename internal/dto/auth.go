package dto

import "time"

// LoginRequest carries password credentials for either a parent or a child.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the bearer token and basic identity.
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userID"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReauthRequest re-confirms the caller's password before a highly privileged
// action such as a balance adjustment.
type ReauthRequest struct {
	Password string `json:"password" binding:"required"`
}

// ReauthResponse returns the short-lived re-authentication token.
type ReauthResponse struct {
	ReauthToken string    `json:"reauthToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RegisterRequest creates a parent login.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}
