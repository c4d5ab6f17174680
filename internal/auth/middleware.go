package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/users"
)

// Authenticator resolves the bearer token into an authz.Principal. Requests
// without a token pass through anonymously; gates decide whether that is
// acceptable.
type Authenticator struct {
	tokens *TokenManager
	users  UserStore
	logger *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(tokens *TokenManager, store UserStore, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: store, logger: logger}
}

// Middleware attaches the principal to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, present := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		userID, _, err := a.tokens.Parse(raw)
		if err != nil {
			httpx.RespondError(w, authz.Deny(authz.ErrNotAuthorized, "", "invalid or expired token"))
			return
		}
		p, err := a.users.LoadPrincipal(r.Context(), userID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				httpx.RespondError(w, authz.Deny(authz.ErrNotAuthorized, "", "user is inactive or missing"))
				return
			}
			if a.logger != nil {
				a.logger.Error("load principal", slog.String("user_id", userID.String()), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}
