package middleware

import (
	"net/http"
	"strings"

	"github.com/earnpro/rewards-backend/api/responses"
	pkgAuth "github.com/earnpro/rewards-backend/pkg/auth"
	"github.com/earnpro/rewards-backend/pkg/auth/session"
	"github.com/earnpro/rewards-backend/pkg/config"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller identity. Admin tokens must also map to a live Redis session.
func Auth(cfg config.JWTConfig, sessions session.SessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := r.Context()
			if claims.IsAdmin() {
				if claims.ID == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
					return
				}
				if sessions == nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
					return
				}
				ok, err := sessions.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
				ctx = WithAdmin(ctx, claims.Subject, claims.ID)
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"admin":      claims.Subject,
						"actor_role": string(claims.Role),
					})
				}
			} else {
				ctx = WithAccountID(ctx, claims.AccountID)
				if logg != nil {
					ctx = logg.WithActorRole(logg.WithAccountID(ctx, claims.AccountID), string(claims.Role))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
