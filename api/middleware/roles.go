package middleware

import (
	"net/http"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// RequireRole rejects callers whose token role is not role. User tokens never
// reach the admin surface and admin tokens cannot act as an end user.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if got := RoleFromContext(ctx); got != role {
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"required_role": role, "actual_role": got})
				}
				err := pkgerrors.New(pkgerrors.CodeForbidden, "role required").
					WithDetails(map[string]any{"requiredRole": role})
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
