package controllers

import (
	"net/http"

	"github.com/pollpulse/pollpulse-backend/api/responses"
	"github.com/pollpulse/pollpulse-backend/internal/results"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
)

// SurveyResults returns aggregated answers to the survey owner.
func SurveyResults(svc results.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "results service unavailable"))
			return
		}

		creatorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		surveyID, err := pathUUID(r, "surveyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		aggregate, err := svc.SurveyResults(r.Context(), creatorID, surveyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, aggregate)
	}
}
