package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// User tokens carry the Telegram account id; admin tokens carry the operator username.
type AccessTokenPayload struct {
	AccountID int64
	Username  string
	Role      enums.Role
	JTI       string
	TTL       time.Duration
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	AccountID int64      `json:"account_id,omitempty"`
	Role      enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims belong to the admin surface.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.RoleAdmin
}
