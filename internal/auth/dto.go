package auth

import "time"

// LoginRequest captures the operator credentials sent to the admin login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries the admin access token and when it lapses.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Username    string    `json:"username"`
}
