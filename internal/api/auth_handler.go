package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mwhitfield/taskboard-api/internal/api/shared"
	"github.com/mwhitfield/taskboard-api/internal/domain"
	"github.com/mwhitfield/taskboard-api/internal/platform/logger"
	"github.com/mwhitfield/taskboard-api/internal/service/auth"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		validator:        newValidator(),
		logger:           logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	user, err := domain.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		shared.RespondWithValidationErrors(w, r, []shared.FieldError{
			{Field: registrationErrorField(err), Message: validationMessage(err)},
		})
		return
	}

	if err := h.userStore.Create(ctx, user); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tokens, err := h.issueTokens(r, user)
	if err != nil {
		log.Error("failed to generate tokens after registration",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()))

	shared.RespondWithMessageAndData(w, r, http.StatusCreated, "User registered successfully", tokens)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	user, err := h.userStore.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a wrong password so the endpoint does not
			// reveal which emails are registered.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tokens, err := h.issueTokens(r, user)
	if err != nil {
		log.Error("failed to generate tokens after login",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.Info("user logged in",
		slog.String("user_id", user.ID.String()))

	shared.RespondWithMessageAndData(w, r, http.StatusOK, "Login successful", tokens)
}

// Refresh handles POST /api/auth/refresh. It exchanges a valid refresh
// token for a fresh access/refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req RefreshTokenRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, fieldErrors(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredRefreshToken) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Refresh token expired")
			return
		}
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := h.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		// The account behind a syntactically valid token may be gone.
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	tokens, err := h.issueTokens(r, user)
	if err != nil {
		log.Error("failed to rotate tokens",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	shared.RespondWithMessageAndData(w, r, http.StatusOK, "Token refreshed successfully", tokens)
}

// Me handles GET /api/auth/me. It returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userStore.GetByID(ctx, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, map[string]any{"user": user})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout is
// the client discarding its copy; the endpoint exists so clients have a
// uniform call to make.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithMessage(w, r, http.StatusOK, "Logged out successfully")
}

// issueTokens generates a fresh access/refresh token pair for the user.
func (h *AuthHandler) issueTokens(r *http.Request, user *domain.User) (TokenResponse, error) {
	ctx := r.Context()

	token, err := h.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("generating access token: %w", err)
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("generating refresh token: %w", err)
	}

	return TokenResponse{Token: token, RefreshToken: refreshToken}, nil
}

// validationMessage returns the human-readable part of a domain validation
// sentinel, without the wrapped base error prefix.
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, domain.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}

// registrationErrorField picks the field name to report for a domain-level
// registration error.
func registrationErrorField(err error) string {
	switch {
	case errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrPasswordNeedsDigit),
		errors.Is(err, domain.ErrEmptyPassword):
		return "password"
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrEmptyEmail):
		return "email"
	case errors.Is(err, domain.ErrUsernameTooShort), errors.Is(err, domain.ErrEmptyUsername):
		return "username"
	default:
		return "body"
	}
}
