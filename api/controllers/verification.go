package controllers

import (
	"net/http"

	"github.com/freshkart-labs/freshkart-backend/api/responses"
	"github.com/freshkart-labs/freshkart-backend/api/validators"
	"github.com/freshkart-labs/freshkart-backend/internal/verification"
	pkgerrors "github.com/freshkart-labs/freshkart-backend/pkg/errors"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
)

type verifyOrderPayload struct {
	Image           []byte   `json:"image" validate:"required"`
	ReferenceWeight *float64 `json:"reference_weight,omitempty" validate:"omitempty,gt=0"`
	MeasuredWeight  *float64 `json:"measured_weight,omitempty" validate:"omitempty,gt=0"`
}

// VerifyOrder runs the advisory checks against submitted evidence.
func VerifyOrder(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyOrderPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		run, err := svc.Verify(r.Context(), userID, orderID, verification.VerifyRequest{
			Image:           body.Image,
			ReferenceWeight: body.ReferenceWeight,
			MeasuredWeight:  body.MeasuredWeight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, run)
	}
}

// ListVerificationRuns returns every recorded run for an order.
func ListVerificationRuns(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runs, err := svc.ListRuns(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"runs": runs})
	}
}
