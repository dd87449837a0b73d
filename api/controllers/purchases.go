package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tierpay/api/responses"
	"github.com/angelmondragon/tierpay/internal/sessions"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

// PurchaseSessions lists the full purchase history.
func PurchaseSessions(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		rows, err := svc.ListAllSessions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// PurchaseSessionsByCustomer lists purchases made under one email address.
func PurchaseSessionsByCustomer(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		rows, err := svc.ListSessionsByCustomer(r.Context(), chi.URLParam(r, "email"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// PurchaseSessionsByDateRange lists purchases between two inclusive calendar days.
func PurchaseSessionsByDateRange(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		startDate := r.URL.Query().Get("start")
		endDate := r.URL.Query().Get("end")
		if startDate == "" || endDate == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates required"))
			return
		}

		start, end, err := sessions.ParseDateRange(startDate, endDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListSessionsByDateRange(r.Context(), start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
