package participation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
)

const surveyNotFoundMessage = "survey not found"

type surveyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
}

// Service accepts anonymous submissions against active surveys.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	repo    Repository
	surveys surveyLoader
}

// ServiceParams bundles the dependencies required to build a participation service.
type ServiceParams struct {
	Repo       Repository
	SurveyRepo surveyLoader
}

// NewService builds a participation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("participation repository is required")
	}
	if params.SurveyRepo == nil {
		return nil, fmt.Errorf("survey repository is required")
	}
	return &service{repo: params.Repo, surveys: params.SurveyRepo}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if len(input.Answers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one answer is required")
	}

	survey, err := s.surveys.FindByID(ctx, input.SurveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, surveyNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load survey")
	}
	if !survey.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, surveyNotFoundMessage)
	}

	participantID := strings.TrimSpace(input.ParticipantID)
	if participantID == "" {
		participantID = uuid.NewString()
	}

	questionsByID := make(map[uuid.UUID]*models.Question, len(survey.Questions))
	for i := range survey.Questions {
		questionsByID[survey.Questions[i].ID] = &survey.Questions[i]
	}

	seen := make(map[uuid.UUID]bool, len(input.Answers))
	responses := make([]models.SurveyResponse, 0, len(input.Answers))
	for _, answer := range input.Answers {
		question, ok := questionsByID[answer.QuestionID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "answer references a question outside this survey")
		}
		if seen[answer.QuestionID] && question.Type != enums.QuestionTypeRanking {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate answer for question")
		}
		seen[answer.QuestionID] = true

		response, err := buildResponse(question, participantID, answer)
		if err != nil {
			return nil, err
		}

		responses = append(responses, *response)
	}

	if err := s.repo.CreateResponses(ctx, responses); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store responses")
	}

	return &SubmitResult{
		ParticipantID: participantID,
		AnswerCount:   len(responses),
	}, nil
}

func buildResponse(question *models.Question, participantID string, answer AnswerInput) (*models.SurveyResponse, error) {
	response := &models.SurveyResponse{
		QuestionID:    question.ID,
		ParticipantID: participantID,
	}

	switch question.Type {
	case enums.QuestionTypePoll, enums.QuestionTypeRanking:
		if answer.ChoiceID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s answers require a choice", question.Type))
		}
		if !choiceBelongs(question, *answer.ChoiceID) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "choice does not belong to question")
		}
		response.ChoiceID = answer.ChoiceID

	case enums.QuestionTypeWordCloud, enums.QuestionTypeScale, enums.QuestionTypeVideo:
		text := strings.TrimSpace(answer.Text)
		if text == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s answers require text", question.Type))
		}
		if answer.ChoiceID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s answers do not take a choice", question.Type))
		}
		response.AnswerText = text

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown question type %q", question.Type))
	}

	return response, nil
}

func choiceBelongs(question *models.Question, choiceID uuid.UUID) bool {
	for _, choice := range question.Choices {
		if choice.ID == choiceID {
			return true
		}
	}
	return false
}
