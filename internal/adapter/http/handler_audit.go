package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/internal/domain"
)

// AuditUseCase defines the audit reads the handler depends on.
type AuditUseCase interface {
	ListEntries(ctx context.Context, filter domain.AuditFilter, actor domain.Actor) (*domain.AuditPage, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, actor domain.Actor) ([]*domain.AuditEntry, error)
}

// AuditHandler handles HTTP requests for the audit trail
type AuditHandler struct {
	auditUseCase AuditUseCase
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditUseCase AuditUseCase) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
	}
}

// RegisterRoutes registers audit routes on an authenticated /api/v1 router
func (h *AuditHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit", h.ListEntries).Methods("GET")
	router.HandleFunc("/audit/entity/{entityType}/{entityId}", h.ListByEntity).Methods("GET")
}

// ListEntries handles filtered, paginated audit listing
func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	page, err := h.auditUseCase.ListEntries(r.Context(), filter, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit entries retrieved successfully", page)
}

// ListByEntity handles retrieving the audit history of one entity
func (h *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	entries, err := h.auditUseCase.ListByEntity(r.Context(), domain.EntityType(vars["entityType"]), vars["entityId"], actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit entries retrieved successfully", entries)
}

func auditFilterFromQuery(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		EntityID: queryString(r, "entity_id"),
	}
	if a := q.Get("action"); a != "" {
		action := domain.AuditAction(a)
		filter.Action = &action
	}
	if e := q.Get("entity_type"); e != "" {
		entityType := domain.EntityType(e)
		filter.EntityType = &entityType
	}

	var err error
	if filter.UserID, err = queryUUID(r, "user_id"); err != nil {
		return filter, err
	}
	if filter.StartDate, err = queryTime(r, "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = queryTime(r, "end_date"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(r, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

// queryTime parses an optional RFC 3339 timestamp
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(name, name+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}
