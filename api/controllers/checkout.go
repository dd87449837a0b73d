package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tierpay/api/responses"
	"github.com/angelmondragon/tierpay/api/validators"
	"github.com/angelmondragon/tierpay/internal/sessions"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

type createCheckoutRequest struct {
	PriceID       string `json:"priceId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string `json:"customerName" validate:"omitempty,min=2"`
}

// CreateCheckoutSession starts a hosted checkout and returns the redirect URL.
func CreateCheckoutSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateCheckoutSession(r.Context(), sessions.CreateSessionInput{
			PriceID:       payload.PriceID,
			CustomerEmail: payload.CustomerEmail,
			CustomerName:  payload.CustomerName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CheckoutSession returns the state of one hosted checkout session.
func CheckoutSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		dto, err := svc.GetCheckoutSession(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
