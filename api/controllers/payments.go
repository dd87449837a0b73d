package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tierpay/api/responses"
	"github.com/angelmondragon/tierpay/api/validators"
	"github.com/angelmondragon/tierpay/internal/payments"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

type createIntentRequest struct {
	ProductID     string `json:"productId" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Currency      string `json:"currency" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string `json:"customerName" validate:"omitempty,min=2"`
}

// StripeConfig exposes the publishable key so browsers can initialize the SDK.
func StripeConfig(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"publishableKey": svc.PublishableKey()})
	}
}

// CreatePaymentIntent starts a direct card payment for a pricing tier.
func CreatePaymentIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateIntent(r.Context(), payments.CreateIntentInput{
			ProductID:     payload.ProductID,
			Amount:        payload.Amount,
			Currency:      payload.Currency,
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

// PaymentStatus returns the current processor status for an intent.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		dto, err := svc.GetPaymentStatus(r.Context(), chi.URLParam(r, "paymentIntentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ConfirmPayment confirms an intent server side. Test-mode aid.
func ConfirmPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		dto, err := svc.ConfirmIntent(r.Context(), chi.URLParam(r, "paymentIntentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
