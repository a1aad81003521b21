package controllers

import (
	"net/http"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/internal/ads"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// AdWatch records one rewarded ad view for the caller.
func AdWatch(svc ads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ads service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		result, err := svc.Watch(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
