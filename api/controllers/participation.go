package controllers

import (
	"net/http"

	"github.com/pollpulse/pollpulse-backend/api/responses"
	"github.com/pollpulse/pollpulse-backend/api/validators"
	"github.com/pollpulse/pollpulse-backend/internal/participation"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
)

// SurveySubmit records an anonymous participant's answers for a survey.
// Clients without a participant id receive a generated one to reuse.
func SurveySubmit(svc participation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "participation service unavailable"))
			return
		}

		surveyID, err := pathUUID(r, "surveyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload participation.SubmitInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.SurveyID = surveyID

		result, err := svc.Submit(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
