package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otisthings/hub-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockSessionValidator is a mock implementation of SessionValidator
type MockSessionValidator struct {
	mock.Mock
}

func (m *MockSessionValidator) ValidateToken(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionValidator) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	member := &models.User{
		ID:        42,
		DiscordID: "100000000000000042",
		Username:  "member",
	}

	t.Run("valid token in Authorization header allows request", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		sessions.On("ValidateToken", "valid-token").Return(int64(42), nil)
		sessions.On("GetUser", mock.Anything, int64(42)).Return(member, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			assert.NotNil(t, user)
			assert.Equal(t, int64(42), user.ID)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		sessions.AssertExpectations(t)
	})

	t.Run("valid token in session cookie allows request", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		sessions.On("ValidateToken", "cookie-token").Return(int64(42), nil)
		sessions.On("GetUser", mock.Anything, int64(42)).Return(member, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotNil(t, GetUserFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		sessions.AssertNotCalled(t, "ValidateToken", mock.Anything)
	})

	t.Run("invalid token returns 401", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		sessions.On("ValidateToken", "bad-token").Return(int64(0), errors.New("invalid token"))

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user returns 401", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		sessions.On("ValidateToken", "orphan-token").Return(int64(99), nil)
		sessions.On("GetUser", mock.Anything, int64(99)).Return(nil, errors.New("user not found"))

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer orphan-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("hub banned user returns 403", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		banned := &models.User{ID: 7, DiscordID: "100000000000000007", IsHubBanned: true}
		sessions.On("ValidateToken", "banned-token").Return(int64(7), nil)
		sessions.On("GetUser", mock.Anything, int64(7)).Return(banned, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer banned-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Hub banned")
	})

	t.Run("header takes precedence over cookie", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		m := NewAuthMiddleware(sessions, logger)

		sessions.On("ValidateToken", "header-token").Return(int64(42), nil)
		sessions.On("GetUser", mock.Anything, int64(42)).Return(member, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		sessions.AssertNotCalled(t, "ValidateToken", "cookie-token")
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid bearer", "Bearer abc123", "abc123"},
		{"lowercase bearer", "bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(req))
		})
	}
}
