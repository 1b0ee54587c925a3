package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/taskboard-api/internal/service/auth"
)

// stubJWTService implements auth.JWTService for middleware tests.
type stubJWTService struct {
	validateFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return s.validateFn(ctx, tokenString)
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidRefreshToken
}

func TestAuthenticateSetsUserID(t *testing.T) {
	userID := uuid.New()
	jwtService := &stubJWTService{
		validateFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			assert.Equal(t, "valid-token", tokenString)
			return &auth.Claims{UserID: userID, TokenType: "access"}, nil
		},
	}
	middleware := NewAuthMiddleware(jwtService)

	var gotUserID uuid.UUID
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, found = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	middleware.Authenticate(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, found)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		tokenErr   error
	}{
		{"missing header", "", nil},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz", nil},
		{"missing token part", "Bearer", nil},
		{"expired token", "Bearer stale", auth.ErrExpiredToken},
		{"invalid token", "Bearer garbage", auth.ErrInvalidToken},
		{"refresh token on an access route", "Bearer refresh", auth.ErrWrongTokenType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jwtService := &stubJWTService{
				validateFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
					return nil, tc.tokenErr
				},
			}
			middleware := NewAuthMiddleware(jwtService)

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run for unauthenticated requests")
			})

			r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tc.authHeader != "" {
				r.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()
			middleware.Authenticate(next).ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
