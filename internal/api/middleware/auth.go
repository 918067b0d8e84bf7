package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/backgammon-go/internal/api/apierr"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/auth"
)

type contextKey string

const (
	participantContextKey contextKey = "participant"
	sessionContextKey     contextKey = "session"

	// TokenQueryParam carries the token for clients that cannot set headers (EventSource, WebSocket)
	TokenQueryParam = "token"
	// SessionCookie is the cookie holding the token
	SessionCookie = "session"
)

// Auth creates authentication middleware
func Auth(authService auth.ServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// OptionalAuth extracts the session if present but doesn't require it
func OptionalAuth(authService auth.ServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				if session, err := authService.ValidateSession(token); err == nil {
					r = r.WithContext(WithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession stores an authenticated session and its participant in ctx
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	return context.WithValue(ctx, participantContextKey, &session.Participant)
}

// ExtractToken extracts the bearer token from the request
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get(TokenQueryParam)
}

// GetParticipant returns the authenticated participant from the request context
func GetParticipant(ctx context.Context) *model.Participant {
	participant, _ := ctx.Value(participantContextKey).(*model.Participant)
	return participant
}

// GetSession returns the auth session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetParticipant returns the authenticated participant or panics
func MustGetParticipant(ctx context.Context) *model.Participant {
	participant := GetParticipant(ctx)
	if participant == nil {
		panic("no participant in context - auth middleware not applied?")
	}
	return participant
}
