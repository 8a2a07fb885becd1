package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

// LoginRequest represents the credentials of a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// AuthUseCase resolves actors from tokens and manages accounts
type AuthUseCase struct {
	userRepo  ports.UserRepository
	auditSink ports.AuditSink
	hasher    ports.PasswordHasher
	tokens    ports.TokenService
	logger    logger.Logger

	now   func() time.Time
	newID func() string
}

// NewAuthUseCase creates a new auth use case
func NewAuthUseCase(
	userRepo ports.UserRepository,
	auditSink ports.AuditSink,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	log logger.Logger,
) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		userRepo:  userRepo,
		auditSink: auditSink,
		hasher:    hasher,
		tokens:    tokens,
		logger:    log.WithFields(map[string]interface{}{"component": "auth_usecase"}),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Login verifies credentials and issues an access token
func (uc *AuthUseCase) Login(ctx context.Context, req LoginRequest, ipAddress, userAgent string) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.NewValidationError("", "email and password are required")
	}

	user, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			logger.LogSecurityEvent(ctx, uc.logger, "login_unknown_email", "LOW", map[string]interface{}{
				"ip": ipAddress,
			})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := uc.hasher.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		logger.LogSecurityEvent(ctx, uc.logger, "login_wrong_password", "MEDIUM", map[string]interface{}{
			"user_id": user.ID,
			"ip":      ipAddress,
		})
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return nil, domain.ErrAccountInactive
	}

	token, err := uc.tokens.GenerateAccessToken(ports.TokenClaims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	uc.recordBestEffort(ctx, domain.NewAuditEntry(uc.newID(), user.Actor(ipAddress, userAgent),
		domain.AuditActionLogin, domain.EntityTypeAuth, user.ID,
		map[string]interface{}{"email": user.Email},
		uc.now(),
	))

	return &LoginResponse{AccessToken: token, TokenType: "Bearer", User: user}, nil
}

// Authenticate resolves the active user behind an access token
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := uc.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, &domain.UnauthorizedError{Reason: err.Error()}
	}

	user, err := uc.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, &domain.UnauthorizedError{Reason: "user no longer exists"}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, domain.ErrAccountInactive
	}

	return user, nil
}

// CreateUser creates an account. A nil actor bootstraps the first
// administrator and is recorded as the new user acting on itself.
func (uc *AuthUseCase) CreateUser(ctx context.Context, req CreateUserRequest, actor *domain.Actor) (*domain.User, error) {
	if actor != nil {
		if err := requireActive(*actor); err != nil {
			return nil, err
		}
		if !domain.HasPermission(actor.Role, domain.PermUserCreate) {
			return nil, domain.ErrRoleNotAllowed
		}
	}

	hash, err := uc.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	now := uc.now()
	user, err := domain.NewUser(uc.newID(), req.Email, req.Name, hash, req.Role, now)
	if err != nil {
		return nil, err
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	recordedBy := user.Actor("", "")
	if actor != nil {
		recordedBy = *actor
	}
	uc.recordBestEffort(ctx, domain.NewAuditEntry(uc.newID(), recordedBy,
		domain.AuditActionUserCreated, domain.EntityTypeUser, user.ID,
		map[string]interface{}{"email": user.Email, "role": user.Role},
		now,
	))

	uc.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, nil
}

func (uc *AuthUseCase) recordBestEffort(ctx context.Context, entry *domain.AuditEntry) {
	if err := uc.auditSink.Record(ctx, entry); err != nil {
		uc.logger.Warn(ctx, "Failed to record audit entry", map[string]interface{}{
			"action": entry.Action,
			"error":  err.Error(),
		})
	}
}
