package results

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
)

type surveyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
}

type responseLister interface {
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.SurveyResponse, error)
}

// Service aggregates survey responses for the survey owner.
type Service interface {
	SurveyResults(ctx context.Context, creatorID uuid.UUID, surveyID uuid.UUID) (*SurveyResults, error)
}

type service struct {
	surveys   surveyLoader
	responses responseLister
}

// ServiceParams bundles the dependencies required to build a results service.
type ServiceParams struct {
	SurveyRepo   surveyLoader
	ResponseRepo responseLister
}

// NewService builds a results service.
func NewService(params ServiceParams) (Service, error) {
	if params.SurveyRepo == nil {
		return nil, fmt.Errorf("survey repository is required")
	}
	if params.ResponseRepo == nil {
		return nil, fmt.Errorf("response repository is required")
	}
	return &service{surveys: params.SurveyRepo, responses: params.ResponseRepo}, nil
}

func (s *service) SurveyResults(ctx context.Context, creatorID uuid.UUID, surveyID uuid.UUID) (*SurveyResults, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "survey not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load survey")
	}
	if survey.CreatorID != creatorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the survey owner can view results")
	}

	out := &SurveyResults{
		SurveyID:  survey.ID,
		Title:     survey.Title,
		Questions: make([]QuestionResult, 0, len(survey.Questions)),
	}
	for i := range survey.Questions {
		question := &survey.Questions[i]
		responses, err := s.responses.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load responses")
		}
		out.Questions = append(out.Questions, aggregateQuestion(question, responses))
	}
	return out, nil
}

func aggregateQuestion(question *models.Question, responses []models.SurveyResponse) QuestionResult {
	result := QuestionResult{
		QuestionID:    question.ID,
		Text:          question.Text,
		Type:          question.Type,
		ResponseCount: len(responses),
	}

	switch question.Type {
	case enums.QuestionTypePoll, enums.QuestionTypeRanking:
		result.Choices = tallyChoices(question.Choices, responses)
	case enums.QuestionTypeWordCloud:
		result.Words = tallyWords(responses)
	case enums.QuestionTypeScale:
		avg := scaleAverage(responses)
		result.Average = &avg
	case enums.QuestionTypeVideo:
		result.Entries = collectTexts(responses)
	}
	return result
}

// tallyChoices counts votes per choice, keeping zero-vote choices so the
// owner sees every option in its original order.
func tallyChoices(choices []models.Choice, responses []models.SurveyResponse) []ChoiceCount {
	counts := make(map[uuid.UUID]int, len(choices))
	for _, response := range responses {
		if response.ChoiceID != nil {
			counts[*response.ChoiceID]++
		}
	}
	out := make([]ChoiceCount, 0, len(choices))
	for _, choice := range choices {
		out = append(out, ChoiceCount{
			ChoiceID: choice.ID,
			Label:    choice.Label,
			Count:    counts[choice.ID],
		})
	}
	return out
}

// tallyWords splits every answer on commas, trims whitespace, drops empty
// fragments, and counts occurrences. Output is ordered most frequent first
// with ties broken alphabetically.
func tallyWords(responses []models.SurveyResponse) []WordCount {
	counts := map[string]int{}
	for _, response := range responses {
		for _, fragment := range strings.Split(response.AnswerText, ",") {
			word := strings.TrimSpace(fragment)
			if word == "" {
				continue
			}
			counts[word]++
		}
	}
	out := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// scaleAverage averages the numeric answers. Non-numeric answers are
// ignored, and a question with no numeric answers averages to zero.
func scaleAverage(responses []models.SurveyResponse) float64 {
	var sum, count int
	for _, response := range responses {
		value, err := strconv.Atoi(strings.TrimSpace(response.AnswerText))
		if err != nil {
			continue
		}
		sum += value
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

func collectTexts(responses []models.SurveyResponse) []string {
	out := make([]string, 0, len(responses))
	for _, response := range responses {
		out = append(out, response.AnswerText)
	}
	return out
}
