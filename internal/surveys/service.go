package surveys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/pagination"
)

// editWindowDays is the fixed period after creation during which a survey
// and its questions may still be changed.
const editWindowDays = 30

const (
	surveyNotFoundMessage   = "survey not found"
	editWindowClosedMessage = "edit window has closed"
	paidTierRequiredMessage = "customization requires a paid subscription"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error)
}

// Service defines survey-level operations.
type Service interface {
	Create(ctx context.Context, input CreateSurveyInput) (*SurveyDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SurveyDTO, error)
	GetOwned(ctx context.Context, creatorID, id uuid.UUID) (*SurveyDTO, error)
	List(ctx context.Context, creatorID uuid.UUID, params pagination.Params) (*SurveyListDTO, error)
	Update(ctx context.Context, input UpdateSurveyInput) (*SurveyDTO, error)
	Delete(ctx context.Context, creatorID, id uuid.UUID) error
	AddQuestion(ctx context.Context, input AddQuestionInput) (*SurveyDTO, error)
	DeleteQuestion(ctx context.Context, creatorID, surveyID, questionID uuid.UUID) error
	AddChoice(ctx context.Context, input AddChoiceInput) (*SurveyDTO, error)
	DeleteChoice(ctx context.Context, creatorID, surveyID, questionID, choiceID uuid.UUID) error
}

type service struct {
	repo  Repository
	users userStore
	tx    txRunner
}

// ServiceParams bundles the dependencies required to build a surveys service.
type ServiceParams struct {
	Repo     Repository
	UserRepo userStore
	TxRunner txRunner
}

// NewService builds a surveys service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("surveys repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		repo:  params.Repo,
		users: params.UserRepo,
		tx:    params.TxRunner,
	}, nil
}

// monthlyQuota returns the per-calendar-month survey limit for a tier.
// A false second return means the tier is unbounded.
func monthlyQuota(tier enums.SubscriptionTier) (int64, bool) {
	switch tier {
	case enums.SubscriptionTierFree:
		return 2, true
	case enums.SubscriptionTierMonthly:
		return 5, true
	case enums.SubscriptionTierQuarterly:
		return 10, true
	case enums.SubscriptionTierSemiAnnual:
		return 0, false
	default:
		return 0, true
	}
}

// effectiveTier degrades a paid tier back to free once the subscription lapses.
func effectiveTier(user *models.User, now time.Time) enums.SubscriptionTier {
	if user.Tier == enums.SubscriptionTierFree {
		return enums.SubscriptionTierFree
	}
	if user.SubscriptionExpiresAt != nil && now.After(*user.SubscriptionExpiresAt) {
		return enums.SubscriptionTierFree
	}
	return user.Tier
}

func calendarMonthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *service) Create(ctx context.Context, input CreateSurveyInput) (*SurveyDTO, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "survey title is required")
	}

	now := time.Now().UTC()
	var created *models.Survey

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// row lock serializes concurrent creates so the quota cannot be raced past
		user, err := s.users.LockByID(ctx, tx, input.CreatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user")
		}

		tier := effectiveTier(user, now)
		if err := ensureCustomizationAllowed(tier, input.BackgroundURL, input.LogoURL); err != nil {
			return err
		}

		limit, bounded := monthlyQuota(tier)
		if bounded {
			monthStart, monthEnd := calendarMonthBounds(now)
			repo := s.repo.WithTx(tx)
			used, err := repo.CountForCreatorBetween(ctx, user.ID, monthStart, monthEnd)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count monthly surveys")
			}
			if used >= limit {
				return pkgerrors.New(pkgerrors.CodeQuota, "monthly survey quota reached").
					WithDetails(map[string]any{"limit": limit, "used": used, "tier": tier})
			}
		}

		survey := &models.Survey{
			CreatorID:     user.ID,
			Title:         title,
			Description:   strings.TrimSpace(input.Description),
			EditableUntil: now.AddDate(0, 0, editWindowDays),
			IsActive:      true,
			BackgroundURL: input.BackgroundURL,
			LogoURL:       input.LogoURL,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, survey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create survey")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created, now), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SurveyDTO, error) {
	survey, err := s.loadSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if !survey.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, surveyNotFoundMessage)
	}
	return FromModel(survey, time.Now().UTC()), nil
}

func (s *service) GetOwned(ctx context.Context, creatorID, id uuid.UUID) (*SurveyDTO, error) {
	survey, err := s.loadOwnedSurvey(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(survey, time.Now().UTC()), nil
}

func (s *service) List(ctx context.Context, creatorID uuid.UUID, params pagination.Params) (*SurveyListDTO, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByCreator(ctx, creatorID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list surveys")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	now := time.Now().UTC()
	out := make([]SurveyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], now))
	}
	return &SurveyListDTO{Surveys: out, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, input UpdateSurveyInput) (*SurveyDTO, error) {
	survey, err := s.loadOwnedSurvey(ctx, input.CreatorID, input.SurveyID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !survey.IsEditable(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, editWindowClosedMessage)
	}

	if input.BackgroundURL != nil || input.LogoURL != nil {
		user, err := s.users.FindByID(ctx, input.CreatorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if err := ensureCustomizationAllowed(effectiveTier(user, now), input.BackgroundURL, input.LogoURL); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "survey title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.BackgroundURL != nil {
		updates["background_url"] = *input.BackgroundURL
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateFields(ctx, survey.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update survey")
		}
	}

	return s.GetOwned(ctx, input.CreatorID, input.SurveyID)
}

func (s *service) Delete(ctx context.Context, creatorID, id uuid.UUID) error {
	if _, err := s.loadOwnedSurvey(ctx, creatorID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete survey")
	}
	return nil
}

func (s *service) AddQuestion(ctx context.Context, input AddQuestionInput) (*SurveyDTO, error) {
	survey, err := s.loadOwnedSurvey(ctx, input.CreatorID, input.SurveyID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !survey.IsEditable(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, editWindowClosedMessage)
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question text is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown question type %q", input.Type))
	}
	if len(input.Choices) > 0 && !input.Type.HasChoices() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s questions do not take choices", input.Type))
	}

	question := &models.Question{
		SurveyID: survey.ID,
		Text:     text,
		Type:     input.Type,
		Position: input.Position,
	}
	for _, label := range input.Choices {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "choice label cannot be empty")
		}
		question.Choices = append(question.Choices, models.Choice{Label: label})
	}

	if _, err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create question")
	}
	return s.GetOwned(ctx, input.CreatorID, input.SurveyID)
}

func (s *service) DeleteQuestion(ctx context.Context, creatorID, surveyID, questionID uuid.UUID) error {
	survey, err := s.loadOwnedSurvey(ctx, creatorID, surveyID)
	if err != nil {
		return err
	}
	if !survey.IsEditable(time.Now().UTC()) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, editWindowClosedMessage)
	}
	if _, err := s.loadSurveyQuestion(ctx, survey.ID, questionID); err != nil {
		return err
	}
	if err := s.repo.DeleteQuestion(ctx, questionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete question")
	}
	return nil
}

func (s *service) AddChoice(ctx context.Context, input AddChoiceInput) (*SurveyDTO, error) {
	survey, err := s.loadOwnedSurvey(ctx, input.CreatorID, input.SurveyID)
	if err != nil {
		return nil, err
	}
	if !survey.IsEditable(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, editWindowClosedMessage)
	}

	question, err := s.loadSurveyQuestion(ctx, survey.ID, input.QuestionID)
	if err != nil {
		return nil, err
	}
	if !question.Type.HasChoices() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s questions do not take choices", question.Type))
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "choice label cannot be empty")
	}

	if _, err := s.repo.CreateChoice(ctx, &models.Choice{QuestionID: question.ID, Label: label}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create choice")
	}
	return s.GetOwned(ctx, input.CreatorID, input.SurveyID)
}

func (s *service) DeleteChoice(ctx context.Context, creatorID, surveyID, questionID, choiceID uuid.UUID) error {
	survey, err := s.loadOwnedSurvey(ctx, creatorID, surveyID)
	if err != nil {
		return err
	}
	if !survey.IsEditable(time.Now().UTC()) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, editWindowClosedMessage)
	}
	question, err := s.loadSurveyQuestion(ctx, survey.ID, questionID)
	if err != nil {
		return err
	}

	for _, choice := range question.Choices {
		if choice.ID == choiceID {
			if err := s.repo.DeleteChoice(ctx, choiceID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete choice")
			}
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "choice not found")
}

func (s *service) loadSurvey(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, surveyNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load survey")
	}
	return survey, nil
}

func (s *service) loadOwnedSurvey(ctx context.Context, creatorID, id uuid.UUID) (*models.Survey, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	survey, err := s.loadSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.CreatorID != creatorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "survey does not belong to user")
	}
	return survey, nil
}

func (s *service) loadSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID) (*models.Question, error) {
	question, err := s.repo.FindQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load question")
	}
	if question.SurveyID != surveyID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}
	return question, nil
}

func ensureCustomizationAllowed(tier enums.SubscriptionTier, backgroundURL, logoURL *string) error {
	if backgroundURL == nil && logoURL == nil {
		return nil
	}
	if tier == enums.SubscriptionTierFree {
		return pkgerrors.New(pkgerrors.CodeForbidden, paidTierRequiredMessage)
	}
	return nil
}
