package controllers

import (
	"net/http"

	"github.com/earnpro/rewards-backend/api/middleware"
	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/internal/accounts"
	"github.com/earnpro/rewards-backend/internal/ledger"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

type profilePayload struct {
	Name      string  `json:"name" validate:"max=128"`
	Username  string  `json:"username" validate:"max=64"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url,max=512"`
	IsPremium bool    `json:"isPremium"`
}

type meResponse struct {
	Account accounts.AccountDTO `json:"account"`
	Created bool                `json:"created"`
}

// MeGet returns the caller's account, creating it with the welcome bonus on
// first contact.
func MeGet(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}

		account, err := svc.Get(ctx, accountID)
		if err == nil {
			responses.WriteSuccess(w, meResponse{Account: accounts.FromModel(*account)})
			return
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, created, err := svc.EnsureAccount(ctx, accounts.Profile{TelegramID: accountID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, meResponse{Account: accounts.FromModel(*account), Created: created})
	}
}

// MeSync refreshes the Telegram profile fields and returns the account.
func MeSync(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}

		var body profilePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, created, err := svc.EnsureAccount(ctx, accounts.Profile{
			TelegramID: accountID,
			Name:       body.Name,
			Username:   body.Username,
			AvatarURL:  body.AvatarURL,
			IsPremium:  body.IsPremium,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, meResponse{Account: accounts.FromModel(*account), Created: created})
	}
}

// MeLedger pages through the caller's ledger, newest first.
func MeLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListByAccount(ctx, accountID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapPage(page, ledgerEntryFromModel))
	}
}

func requireAccount(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (int64, bool) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID <= 0 {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
		return 0, false
	}
	return accountID, true
}
