package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	if args.Error(0) == nil {
		category.ID = 1
	}
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetAll(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(log *models.AuditLog) error {
	args := m.Called(log)
	return args.Error(0)
}

const supportRoleID = "500000000000000001"

func requestWithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func supportUser() *models.User {
	return &models.User{
		ID:        7,
		DiscordID: "100000000000000007",
		Username:  "support",
		Roles:     []models.RoleReference{{ID: supportRoleID}},
	}
}

func adminUser() *models.User {
	return &models.User{ID: 1, DiscordID: "100000000000000001", Username: "admin", IsAdmin: true}
}

func testCategories() []*models.Category {
	return []*models.Category{
		{ID: 1, Name: "General", RequiredRoleID: supportRoleID},
		{ID: 2, Name: "Staff Only", RequiredRoleID: "500000000000000099", IsRestricted: true},
		{ID: 3, Name: "Open", RequiredRoleID: ""},
	}
}

func TestCategoryHandler_Support(t *testing.T) {
	repo := new(MockCategoryRepository)
	h := NewCategoryHandler(repo, nil, zap.NewNop())

	repo.On("GetAll", mock.Anything).Return(testCategories(), nil)

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/categories/support", nil), supportUser())
	w := httptest.NewRecorder()

	h.HandleSupport(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Category `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "General", body.Data[0].Name)
}

func TestCategoryHandler_Accessible(t *testing.T) {
	t.Run("restricted categories hidden without support access", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		h := NewCategoryHandler(repo, nil, zap.NewNop())

		repo.On("GetAll", mock.Anything).Return(testCategories(), nil)

		req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/categories/accessible", nil), supportUser())
		w := httptest.NewRecorder()

		h.HandleAccessible(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data []models.Category `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		names := make([]string, 0, len(body.Data))
		for _, c := range body.Data {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"General", "Open"}, names)
	})

	t.Run("admins see every category", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		h := NewCategoryHandler(repo, nil, zap.NewNop())

		repo.On("GetAll", mock.Anything).Return(testCategories(), nil)

		req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/categories/accessible", nil), adminUser())
		w := httptest.NewRecorder()

		h.HandleAccessible(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data []models.Category `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Len(t, body.Data, 3)
	})
}

func TestCategoryHandler_Create(t *testing.T) {
	t.Run("admin creates category and audit entry", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		auditor := new(MockRecorder)
		h := NewCategoryHandler(repo, auditor, zap.NewNop())

		repo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
			return c.Name == "Billing" && c.IsRestricted
		})).Return(nil)
		auditor.On("Record", mock.MatchedBy(func(log *models.AuditLog) bool {
			return log.Action == models.AuditActionCategoryCreated && log.ResourceID == "1"
		})).Return(nil)

		payload := `{"name":"Billing","color":"#ff0000","is_restricted":true}`
		req := requestWithUser(httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(payload)), adminUser())
		w := httptest.NewRecorder()

		h.HandleCreate(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		repo.AssertExpectations(t)
		auditor.AssertExpectations(t)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		h := NewCategoryHandler(repo, nil, zap.NewNop())

		payload := `{"name":"Billing"}`
		req := requestWithUser(httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(payload)), supportUser())
		w := httptest.NewRecorder()

		h.HandleCreate(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing name fails validation", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		h := NewCategoryHandler(repo, nil, zap.NewNop())

		payload := `{"color":"#fff"}`
		req := requestWithUser(httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(payload)), adminUser())
		w := httptest.NewRecorder()

		h.HandleCreate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCategoryHandler_Delete(t *testing.T) {
	repo := new(MockCategoryRepository)
	auditor := new(MockRecorder)
	h := NewCategoryHandler(repo, auditor, zap.NewNop())

	repo.On("Delete", mock.Anything, int64(3)).Return(nil)
	auditor.On("Record", mock.MatchedBy(func(log *models.AuditLog) bool {
		return log.Action == models.AuditActionCategoryDeleted
	})).Return(nil)

	req := requestWithUser(httptest.NewRequest(http.MethodDelete, "/api/categories/3", nil), adminUser())
	req = withURLParam(req, "id", "3")
	w := httptest.NewRecorder()

	h.HandleDelete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}
