package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jurix/jurix/infrastructure/http/middleware"
	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/usecase"
)

// AuthUseCase defines the account operations the handler depends on.
type AuthUseCase interface {
	Login(ctx context.Context, req usecase.LoginRequest, ipAddress, userAgent string) (*usecase.LoginResponse, error)
	CreateUser(ctx context.Context, req usecase.CreateUserRequest, actor *domain.Actor) (*domain.User, error)
}

// AuthHandler handles login, the current principal and account creation
type AuthHandler struct {
	authUseCase AuthUseCase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUseCase AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// RegisterPublicRoutes registers routes that need no token
func (h *AuthHandler) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
}

// RegisterRoutes registers routes on an authenticated /api/v1 router
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/me", h.Me).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
}

// Login handles credential exchange for an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req usecase.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authUseCase.Login(r.Context(), req, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Login successful", resp)
}

// Me returns the authenticated principal
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	response.Success(w, http.StatusOK, "Current user retrieved successfully", actor)
}

// CreateUser handles account creation by an administrator
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req usecase.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authUseCase.CreateUser(r.Context(), req, &actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "User created successfully", user)
}
