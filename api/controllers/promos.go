package controllers

import (
	"net/http"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/internal/promos"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

type claimPayload struct {
	Code string `json:"code" validate:"required,max=64"`
}

// PromoClaim redeems a code for the caller.
func PromoClaim(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		var body claimPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Claim(ctx, body.Code, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PromoClaimHistory lists the codes the caller has redeemed.
func PromoClaimHistory(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		claims, err := svc.ListClaims(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]promoClaimView, 0, len(claims))
		for _, claim := range claims {
			out = append(out, promoClaimView{PromoCodeID: claim.PromoCodeID, Reward: claim.Reward, ClaimedAt: claim.ClaimedAt})
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminPromoList(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}
		list, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]promoView, 0, len(list))
		for _, promo := range list {
			out = append(out, promoFromModel(promo))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminPromoCreate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}
		var body promos.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		promo, err := svc.Create(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, promoFromModel(*promo))
	}
}

func AdminPromoDelete(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}
		promoID, err := uuidParam(r, "promoId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, promoID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
