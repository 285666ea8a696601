package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/api/shared"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/auth"
)

// GuestTokenHeader carries the anonymous identity for guest study
// sessions. The value must be a version-4 UUID minted by the client.
const GuestTokenHeader = "X-Guest-Token"

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates JWT tokens from the Authorization header and
// adds the user ID to the request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.validateBearer(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identify resolves the caller's identity for study routes, which accept
// either an authenticated learner or an anonymous guest. A Bearer token
// takes precedence; otherwise a well-formed guest token header is
// accepted. Requests carrying neither are rejected.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			userID, ok := m.validateBearer(w, r)
			if !ok {
				return
			}
			ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		guestHeader := r.Header.Get(GuestTokenHeader)
		if guestHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "validation",
				"Authorization or guest token required")
			return
		}

		token, err := uuid.Parse(guestHeader)
		if err != nil || token.Version() != 4 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "validation",
				"Guest token must be a version-4 UUID")
			return
		}

		ctx := context.WithValue(r.Context(), shared.GuestTokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateBearer extracts and validates the Authorization header. On
// failure it writes the error response and returns ok=false.
func (m *AuthMiddleware) validateBearer(
	w http.ResponseWriter,
	r *http.Request,
) (uuid.UUID, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "validation",
			"Authorization header required")
		return uuid.Nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "validation",
			"Invalid authorization format")
		return uuid.Nil, false
	}

	claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
	if err != nil {
		switch err {
		case auth.ErrExpiredToken:
			shared.RespondWithError(w, r, http.StatusUnauthorized, "validation", "Token expired")
		case auth.ErrInvalidToken:
			shared.RespondWithError(w, r, http.StatusUnauthorized, "validation", "Invalid token")
		default:
			slog.Error("failed to validate token", "error", err)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "server_error",
				"Authentication error")
		}
		return uuid.Nil, false
	}

	return claims.UserID, true
}

// GetUserID extracts the authenticated learner's ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetGuestToken extracts the guest token from the request context.
func GetGuestToken(r *http.Request) (uuid.UUID, bool) {
	token, ok := r.Context().Value(shared.GuestTokenContextKey).(uuid.UUID)
	return token, ok
}
