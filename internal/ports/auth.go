package ports

import "github.com/jurix/jurix/internal/domain"

// TokenClaims is the identity carried by an access token
type TokenClaims struct {
	UserID string
	Role   domain.Role
}

// TokenService issues and validates access tokens
type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) (bool, error)
}
