package controllers

import (
	"net/http"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/internal/accounts"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// Leaderboard ranks accounts by lifetime earnings. defaultLimit applies when
// ?limit= is absent.
func Leaderboard(svc accounts.Service, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		entries, err := svc.Leaderboard(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
