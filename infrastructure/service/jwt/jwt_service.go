package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

const tokenTypeAccess = "access"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Config holds the HS256 signing settings
type Config struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type accessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("access token TTL must be positive")
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    time.Now,
	}, nil
}

func (s *JWTService) GenerateAccessToken(claims ports.TokenClaims) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID: claims.UserID,
		Role:   string(claims.Role),
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*ports.TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.Type != tokenTypeAccess {
		return nil, ErrInvalidToken
	}

	return &ports.TokenClaims{
		UserID: claims.UserID,
		Role:   domain.Role(claims.Role),
	}, nil
}

// TTL returns the lifetime of issued access tokens
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}
