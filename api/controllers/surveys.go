package controllers

import (
	"net/http"

	"github.com/pollpulse/pollpulse-backend/api/responses"
	"github.com/pollpulse/pollpulse-backend/api/validators"
	"github.com/pollpulse/pollpulse-backend/internal/surveys"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
)

// SurveyCreate opens a new survey for the authenticated creator, subject to
// the monthly quota of their subscription tier.
func SurveyCreate(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
			return
		}

		creatorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload surveys.CreateSurveyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.CreatorID = creatorID

		survey, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, survey)
	}
}

// SurveyList pages through the creator's own surveys.
func SurveyList(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
			return
		}

		creatorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), creatorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// SurveyDetail returns an owned survey with its questions and choices.
func SurveyDetail(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		survey, err := svc.GetOwned(r.Context(), creatorID, surveyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, survey)
	}
}

// PublicSurveyDetail exposes an active survey to anonymous participants.
func PublicSurveyDetail(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
			return
		}

		surveyID, err := pathUUID(r, "surveyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		survey, err := svc.Get(r.Context(), surveyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, survey)
	}
}

// SurveyUpdate applies partial changes inside the edit window.
func SurveyUpdate(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		var payload surveys.UpdateSurveyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.CreatorID = creatorID
		payload.SurveyID = surveyID

		survey, err := svc.Update(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, survey)
	}
}

// SurveyDelete removes an owned survey and all its responses.
func SurveyDelete(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		if err := svc.Delete(r.Context(), creatorID, surveyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// SurveyAddQuestion appends a question, with inline choices for poll and
// ranking types.
func SurveyAddQuestion(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		var payload surveys.AddQuestionInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.CreatorID = creatorID
		payload.SurveyID = surveyID

		survey, err := svc.AddQuestion(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, survey)
	}
}

// SurveyDeleteQuestion removes a question and its recorded answers.
func SurveyDeleteQuestion(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		questionID, err := pathUUID(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteQuestion(r.Context(), creatorID, surveyID, questionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// SurveyAddChoice appends a choice to a poll or ranking question.
func SurveyAddChoice(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		questionID, err := pathUUID(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload surveys.AddChoiceInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.CreatorID = creatorID
		payload.SurveyID = surveyID
		payload.QuestionID = questionID

		survey, err := svc.AddChoice(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, survey)
	}
}

// SurveyDeleteChoice removes a choice from a poll or ranking question.
func SurveyDeleteChoice(svc surveys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "survey service unavailable"))
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

		questionID, err := pathUUID(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		choiceID, err := pathUUID(r, "choiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteChoice(r.Context(), creatorID, surveyID, questionID, choiceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
