package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jurix/jurix/internal/domain"
)

// MockAuditUseCase is a mock implementation of AuditUseCase
type MockAuditUseCase struct {
	mock.Mock
}

func (m *MockAuditUseCase) ListEntries(ctx context.Context, filter domain.AuditFilter, actor domain.Actor) (*domain.AuditPage, error) {
	args := m.Called(ctx, filter, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditPage), args.Error(1)
}

func (m *MockAuditUseCase) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, actor domain.Actor) ([]*domain.AuditEntry, error) {
	args := m.Called(ctx, entityType, entityID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Error(1)
}

func serveAudit(h *AuditHandler, actor domain.Actor, target string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	withActor(&actor, router).ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestAuditHandler_ListEntries(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	action := domain.AuditActionContractApproved
	entityType := domain.EntityTypeContract
	userID := "0f8fad5b-d9cb-469f-a165-70867728950e"

	tests := []struct {
		name           string
		query          string
		expectedFilter *domain.AuditFilter
		mockResponse   *domain.AuditPage
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "filters from query",
			query: "?user_id=0f8fad5b-d9cb-469f-a165-70867728950e&action=CONTRACT_APPROVED&entity_type=CONTRACT&start_date=2024-03-01T00:00:00Z&end_date=2024-03-31T23:59:59Z&page=1&limit=20",
			expectedFilter: &domain.AuditFilter{
				UserID: &userID, Action: &action, EntityType: &entityType,
				StartDate: &start, EndDate: &end, Page: 1, Limit: 20,
			},
			mockResponse:   &domain.AuditPage{Entries: []*domain.AuditEntry{}, Page: 1, Limit: 20},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":true,"message":"Audit entries retrieved successfully","data":{"entries":[],"total":0,"page":1,"limit":20,"total_pages":0}}`,
		},
		{
			name:           "malformed date",
			query:          "?start_date=yesterday",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":false,"message":"start_date: start_date must be an RFC 3339 timestamp","data":{"field":"start_date"},"code":"VALIDATION_ERROR"}`,
		},
		{
			name:           "malformed user id",
			query:          "?user_id=legal",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":false,"message":"user_id: user_id must be a valid UUID","data":{"field":"user_id"},"code":"VALIDATION_ERROR"}`,
		},
		{
			name:           "viewer is refused",
			expectedFilter: &domain.AuditFilter{},
			mockError:      domain.ErrRoleNotAllowed,
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":false,"message":"role is not allowed to perform this operation","data":null,"code":"FORBIDDEN"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := &MockAuditUseCase{}
			handler := NewAuditHandler(mockUseCase)

			if tt.expectedFilter != nil {
				mockUseCase.On("ListEntries", mock.Anything, *tt.expectedFilter, legalActor).Return(tt.mockResponse, tt.mockError)
			}

			w := serveAudit(handler, legalActor, "/audit"+tt.query)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockUseCase.AssertExpectations(t)
		})
	}
}

func TestAuditHandler_ListByEntity(t *testing.T) {
	mockUseCase := &MockAuditUseCase{}
	handler := NewAuditHandler(mockUseCase)
	entityID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	mockUseCase.On("ListByEntity", mock.Anything, domain.EntityTypeContract, "7c9e6679-7425-40de-944b-e07fc1f90ae7", legalActor).Return([]*domain.AuditEntry{
		{
			ID: "audit-1", UserID: "0f8fad5b-d9cb-469f-a165-70867728950e", Action: domain.AuditActionContractCreated,
			EntityType: domain.EntityTypeContract, EntityID: &entityID,
			Metadata: map[string]interface{}{"title": "Service Agreement"}, CreatedAt: fixedTime,
		},
	}, nil)

	w := serveAudit(handler, legalActor, "/audit/entity/CONTRACT/7c9e6679-7425-40de-944b-e07fc1f90ae7")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":true,"message":"Audit entries retrieved successfully","data":[{"id":"audit-1","user_id":"0f8fad5b-d9cb-469f-a165-70867728950e","action":"CONTRACT_CREATED","entity_type":"CONTRACT","entity_id":"7c9e6679-7425-40de-944b-e07fc1f90ae7","metadata":{"title":"Service Agreement"},"created_at":"2024-03-01T09:00:00Z"}]}`, w.Body.String())
	mockUseCase.AssertExpectations(t)
}
