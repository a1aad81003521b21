package controllers

import (
	"net/http"
	"strings"

	"github.com/earnpro/rewards-backend/api/middleware"
	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

type createWithdrawalPayload struct {
	WalletAddress string `json:"walletAddress" validate:"required,max=256"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	UserName      string `json:"userName" validate:"max=128"`
}

// WithdrawalCreate reserves coins from the caller's balance for payout.
func WithdrawalCreate(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		var body createWithdrawalPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		request, err := svc.Create(ctx, withdrawals.CreateInput{
			AccountID:     accountID,
			UserName:      body.UserName,
			WalletAddress: body.WalletAddress,
			Amount:        body.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, withdrawalFromModel(svc, *request))
	}
}

// WithdrawalList pages through the caller's own requests.
func WithdrawalList(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		listWithdrawals(w, r, svc, withdrawals.ListFilter{AccountID: accountID}, logg)
	}
}

// AdminWithdrawalList pages through every request, optionally by ?status=.
func AdminWithdrawalList(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}
		filter := withdrawals.ListFilter{
			Status: enums.WithdrawalStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("accountId")); raw != "" {
			accountID, err := validators.ParsePathInt64(raw, "accountId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			filter.AccountID = accountID
		}
		listWithdrawals(w, r, svc, filter, logg)
	}
}

func listWithdrawals(w http.ResponseWriter, r *http.Request, svc withdrawals.Service, filter withdrawals.ListFilter, logg *logger.Logger) {
	ctx := r.Context()
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	page, err := svc.List(ctx, filter, params)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, mapPage(page, func(req models.WithdrawalRequest) withdrawalView {
		return withdrawalFromModel(svc, req)
	}))
}

// AdminWithdrawalTransition resolves a pending request. A request that was
// already resolved answers 200 with applied=false and its current status.
func AdminWithdrawalTransition(svc withdrawals.Service, outcome enums.WithdrawalStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}
		requestID, err := uuidParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Transition(ctx, withdrawals.TransitionInput{
			RequestID:     requestID,
			Outcome:       outcome,
			AdminUsername: middleware.AdminUsernameFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view := transitionView{Applied: result.Applied, Status: result.Status}
		if result.Request != nil {
			req := withdrawalFromModel(svc, *result.Request)
			view.Request = &req
		}
		responses.WriteSuccess(w, view)
	}
}
