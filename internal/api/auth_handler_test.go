package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/taskboard-api/internal/api/shared"
	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/service/auth"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// mockUserStore implements store.UserStore with overridable functions.
type mockUserStore struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.createFn(ctx, user)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFn(ctx, email)
}

// mockJWTService implements auth.JWTService with overridable functions.
type mockJWTService struct {
	generateTokenFn        func(ctx context.Context, userID uuid.UUID) (string, error)
	validateTokenFn        func(ctx context.Context, tokenString string) (*auth.Claims, error)
	generateRefreshTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	validateRefreshTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateTokenFn != nil {
		return m.generateTokenFn(ctx, userID)
	}
	return "access-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return m.validateTokenFn(ctx, tokenString)
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateRefreshTokenFn != nil {
		return m.generateRefreshTokenFn(ctx, userID)
	}
	return "refresh-token", nil
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return m.validateRefreshTokenFn(ctx, tokenString)
}

// mockPasswordVerifier implements auth.PasswordVerifier.
type mockPasswordVerifier struct {
	compareFn func(hashedPassword, password string) error
}

func (m *mockPasswordVerifier) Compare(hashedPassword, password string) error {
	if m.compareFn != nil {
		return m.compareFn(hashedPassword, password)
	}
	return nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) shared.Envelope {
	t.Helper()
	var envelope shared.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestRegisterSuccess(t *testing.T) {
	var created *domain.User
	userStore := &mockUserStore{
		createFn: func(ctx context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter42",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access-token", data["token"])
	assert.Equal(t, "refresh-token", data["refreshToken"])

	require.NotNil(t, created)
	assert.Equal(t, "alice", created.Username)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userStore := &mockUserStore{
		createFn: func(ctx context.Context, user *domain.User) error {
			return store.ErrEmailExists
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Username: "alice",
		Email:    "taken@example.com",
		Password: "hunter42",
	})

	assert.Equal(t, http.StatusConflict, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.Equal(t, "User exists", envelope.Message)
}

func TestRegisterValidationEnvelope(t *testing.T) {
	handler := NewAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Username: "ab",
		Email:    "not-an-email",
		Password: "hunter42",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Validation Error", envelope.Message)
	require.Len(t, envelope.Errors, 2)
}

func TestRegisterWeakPassword(t *testing.T) {
	handler := NewAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "letters-only",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "Validation Error", envelope.Message)
	require.Len(t, envelope.Errors, 1)
	assert.Equal(t, "password", envelope.Errors[0].Field)
}

func TestLoginSuccess(t *testing.T) {
	user, err := domain.NewUser("alice", "alice@example.com", "hunter42")
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = "$2a$10$hash"

	userStore := &mockUserStore{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			assert.Equal(t, "alice@example.com", email)
			return user, nil
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter42",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access-token", data["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	user, err := domain.NewUser("alice", "alice@example.com", "hunter42")
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = "$2a$10$hash"

	userStore := &mockUserStore{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
	}
	verifier := &mockPasswordVerifier{
		compareFn: func(hashedPassword, password string) error {
			return errors.New("crypto/bcrypt: hashedPassword is not the hash of the given password")
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, verifier, nil)

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-pass1",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decodeEnvelope(t, w).Message)
}

func TestLoginUnknownEmail(t *testing.T) {
	userStore := &mockUserStore{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, store.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "ghost@example.com",
		Password: "hunter42",
	})

	// Unknown email and wrong password are indistinguishable.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decodeEnvelope(t, w).Message)
}

func TestRefreshSuccess(t *testing.T) {
	userID := uuid.New()
	user := &domain.User{ID: userID, Username: "alice", Email: "alice@example.com", HashedPassword: "x"}

	userStore := &mockUserStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			assert.Equal(t, userID, id)
			return user, nil
		},
	}
	jwtService := &mockJWTService{
		validateRefreshTokenFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
		},
	}
	handler := NewAuthHandler(userStore, jwtService, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Refresh, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "valid-refresh-token",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
}

func TestRefreshInvalidToken(t *testing.T) {
	jwtService := &mockJWTService{
		validateRefreshTokenFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return nil, auth.ErrInvalidRefreshToken
		},
	}
	handler := NewAuthHandler(&mockUserStore{}, jwtService, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Refresh, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "garbage",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", decodeEnvelope(t, w).Message)
}

func TestRefreshExpiredToken(t *testing.T) {
	jwtService := &mockJWTService{
		validateRefreshTokenFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return nil, auth.ErrExpiredRefreshToken
		},
	}
	handler := NewAuthHandler(&mockUserStore{}, jwtService, &mockPasswordVerifier{}, nil)

	w := postJSON(t, handler.Refresh, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "stale",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token expired", decodeEnvelope(t, w).Message)
}

func TestMeReturnsProfile(t *testing.T) {
	userID := uuid.New()
	user := &domain.User{ID: userID, Username: "alice", Email: "alice@example.com", HashedPassword: "x"}

	userStore := &mockUserStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return user, nil
		},
	}
	handler := NewAuthHandler(userStore, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r = r.WithContext(context.WithValue(r.Context(), shared.UserIDContextKey, userID))
	w := httptest.NewRecorder()
	handler.Me(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)

	profile, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", profile["username"])
	// The password hash never leaves the server.
	assert.NotContains(t, profile, "hashedPassword")
	assert.NotContains(t, profile, "password")
}

func TestMeWithoutUserContext(t *testing.T) {
	handler := NewAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	handler.Me(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	handler := NewAuthHandler(&mockUserStore{}, &mockJWTService{}, &mockPasswordVerifier{}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	handler.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", decodeEnvelope(t, w).Message)
}
