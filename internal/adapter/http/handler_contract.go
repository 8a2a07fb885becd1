package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/usecase"
)

// ContractUseCase defines the behavior the handler depends on.
type ContractUseCase interface {
	CreateContract(ctx context.Context, req usecase.CreateContractRequest, actor domain.Actor) (*domain.Contract, error)
	GetContract(ctx context.Context, id string, actor domain.Actor) (*domain.Contract, error)
	ListContracts(ctx context.Context, filter domain.ContractFilter, actor domain.Actor) (*domain.ContractPage, error)
	UpdateContent(ctx context.Context, id string, req usecase.UpdateContractRequest, actor domain.Actor) (*domain.Contract, error)
	Transition(ctx context.Context, id string, target domain.ContractStatus, actor domain.Actor, opts usecase.TransitionOptions) (*domain.Contract, error)
	Submit(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error)
	Approve(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error)
	Reject(ctx context.Context, id, reason string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error)
	ReturnToDraft(ctx context.Context, id string, actor domain.Actor, expectedVersion *int) (*domain.Contract, error)
	DeleteContract(ctx context.Context, id string, actor domain.Actor) error
	ListVersions(ctx context.Context, id string, actor domain.Actor) ([]*domain.ContractVersion, error)
}

// ContractHandler handles HTTP requests for contracts
type ContractHandler struct {
	contractUseCase ContractUseCase
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractUseCase ContractUseCase) *ContractHandler {
	return &ContractHandler{
		contractUseCase: contractUseCase,
	}
}

// RegisterRoutes registers contract routes on an authenticated /api/v1 router
func (h *ContractHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/contracts", h.CreateContract).Methods("POST")
	router.HandleFunc("/contracts", h.ListContracts).Methods("GET")
	router.HandleFunc("/contracts/{id}", h.GetContract).Methods("GET")
	router.HandleFunc("/contracts/{id}", h.UpdateContract).Methods("PUT")
	router.HandleFunc("/contracts/{id}", h.DeleteContract).Methods("DELETE")
	router.HandleFunc("/contracts/{id}/transition", h.Transition).Methods("POST")
	router.HandleFunc("/contracts/{id}/submit", h.Submit).Methods("POST")
	router.HandleFunc("/contracts/{id}/approve", h.Approve).Methods("POST")
	router.HandleFunc("/contracts/{id}/reject", h.Reject).Methods("POST")
	router.HandleFunc("/contracts/{id}/return-to-draft", h.ReturnToDraft).Methods("POST")
	router.HandleFunc("/contracts/{id}/versions", h.ListVersions).Methods("GET")
}

type transitionRequest struct {
	Status          domain.ContractStatus `json:"status"`
	Reason          string                `json:"reason"`
	ExpectedVersion *int                  `json:"expected_version"`
}

// CreateContract handles contract creation
func (h *ContractHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req usecase.CreateContractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contract, err := h.contractUseCase.CreateContract(r.Context(), req, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Contract created successfully", contract)
}

// ListContracts handles listing contracts with filters and pagination
func (h *ContractHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter, err := contractFilterFromQuery(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	page, err := h.contractUseCase.ListContracts(r.Context(), filter, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Contracts retrieved successfully", page)
}

// GetContract handles retrieving a single contract
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	contract, err := h.contractUseCase.GetContract(r.Context(), id, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Contract retrieved successfully", contract)
}

// UpdateContract handles title and content edits
func (h *ContractHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var req usecase.UpdateContractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contract, err := h.contractUseCase.UpdateContent(r.Context(), id, req, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Contract updated successfully", contract)
}

// DeleteContract handles contract deletion
func (h *ContractHandler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.contractUseCase.DeleteContract(r.Context(), id, actor); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Contract deleted successfully", nil)
}

// Transition moves a contract to the status named in the body
func (h *ContractHandler) Transition(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Contract status updated", func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error) {
		opts := usecase.TransitionOptions{ExpectedVersion: req.ExpectedVersion}
		if req.Reason != "" {
			opts.Reason = &req.Reason
		}
		return h.contractUseCase.Transition(ctx, id, req.Status, actor, opts)
	})
}

// Submit moves a DRAFT contract into review
func (h *ContractHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Contract submitted for review", func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error) {
		return h.contractUseCase.Submit(ctx, id, actor, req.ExpectedVersion)
	})
}

// Approve approves a contract under review
func (h *ContractHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Contract approved", func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error) {
		return h.contractUseCase.Approve(ctx, id, actor, req.ExpectedVersion)
	})
}

// Reject rejects a contract under review; a reason is required
func (h *ContractHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Contract rejected", func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error) {
		return h.contractUseCase.Reject(ctx, id, req.Reason, actor, req.ExpectedVersion)
	})
}

// ReturnToDraft reopens a rejected contract for editing
func (h *ContractHandler) ReturnToDraft(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Contract returned to draft", func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error) {
		return h.contractUseCase.ReturnToDraft(ctx, id, actor, req.ExpectedVersion)
	})
}

// ListVersions handles retrieving the version history of a contract
func (h *ContractHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	versions, err := h.contractUseCase.ListVersions(r.Context(), id, actor)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Contract versions retrieved successfully", versions)
}

type transitionFunc func(ctx context.Context, id string, actor domain.Actor, req transitionRequest) (*domain.Contract, error)

func (h *ContractHandler) transition(w http.ResponseWriter, r *http.Request, message string, fn transitionFunc) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var req transitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contract, err := fn(r.Context(), id, actor, req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, message, contract)
}

func contractFilterFromQuery(r *http.Request) (domain.ContractFilter, error) {
	q := r.URL.Query()
	filter := domain.ContractFilter{
		Search:    q.Get("search"),
		SortBy:    domain.ContractSortField(q.Get("sort_by")),
		SortOrder: domain.SortOrder(q.Get("sort_order")),
	}
	if s := q.Get("status"); s != "" {
		status := domain.ContractStatus(s)
		filter.Status = &status
	}

	var err error
	if filter.CreatedByID, err = queryUUID(r, "created_by_id"); err != nil {
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
