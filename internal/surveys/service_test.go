package surveys

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/pagination"
)

type stubRepo struct {
	surveys   map[uuid.UUID]*models.Survey
	questions map[uuid.UUID]*models.Question
	choices   map[uuid.UUID]*models.Choice
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		surveys:   map[uuid.UUID]*models.Survey{},
		questions: map[uuid.UUID]*models.Question{},
		choices:   map[uuid.UUID]*models.Choice{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = time.Now().UTC()
	}
	s.surveys[survey.ID] = survey
	return survey, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	survey, ok := s.surveys[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *survey
	clone.Questions = nil
	for _, q := range s.questions {
		if q.SurveyID != id {
			continue
		}
		qClone := *q
		qClone.Choices = nil
		for _, c := range s.choices {
			if c.QuestionID == q.ID {
				qClone.Choices = append(qClone.Choices, *c)
			}
		}
		clone.Questions = append(clone.Questions, qClone)
	}
	return &clone, nil
}

func (s *stubRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Survey, error) {
	var out []models.Survey
	for _, survey := range s.surveys {
		if survey.CreatorID != creatorID {
			continue
		}
		if cursor != nil && !survey.CreatedAt.Before(cursor.CreatedAt) {
			continue
		}
		out = append(out, *survey)
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	survey, ok := s.surveys[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["title"]; ok {
		survey.Title = v.(string)
	}
	if v, ok := updates["description"]; ok {
		survey.Description = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		survey.IsActive = v.(bool)
	}
	if v, ok := updates["background_url"]; ok {
		value := v.(string)
		survey.BackgroundURL = &value
	}
	if v, ok := updates["logo_url"]; ok {
		value := v.(string)
		survey.LogoURL = &value
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.surveys, id)
	return nil
}

func (s *stubRepo) CountForCreatorBetween(ctx context.Context, creatorID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	for _, survey := range s.surveys {
		if survey.CreatorID == creatorID && !survey.CreatedAt.Before(from) && survey.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) CreateQuestion(ctx context.Context, question *models.Question) (*models.Question, error) {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	for i := range question.Choices {
		choice := question.Choices[i]
		choice.ID = uuid.New()
		choice.QuestionID = question.ID
		s.choices[choice.ID] = &choice
	}
	stored := *question
	stored.Choices = nil
	s.questions[question.ID] = &stored
	return question, nil
}

func (s *stubRepo) FindQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	question, ok := s.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *question
	for _, c := range s.choices {
		if c.QuestionID == id {
			clone.Choices = append(clone.Choices, *c)
		}
	}
	return &clone, nil
}

func (s *stubRepo) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	delete(s.questions, id)
	return nil
}

func (s *stubRepo) CreateChoice(ctx context.Context, choice *models.Choice) (*models.Choice, error) {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	s.choices[choice.ID] = choice
	return choice, nil
}

func (s *stubRepo) DeleteChoice(ctx context.Context, id uuid.UUID) error {
	delete(s.choices, id)
	return nil
}

type stubUserStore struct {
	users map[uuid.UUID]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	return s.FindByID(ctx, id)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *stubRepo, *stubUserStore) {
	t.Helper()
	repo := newStubRepo()
	userStore := newStubUserStore()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		UserRepo: userStore,
		TxRunner: stubTxRunner{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, userStore
}

func addUser(store *stubUserStore, tier enums.SubscriptionTier, expiresAt *time.Time) *models.User {
	user := &models.User{
		ID:                    uuid.New(),
		PhoneNumber:           "09121234567",
		Tier:                  tier,
		SubscriptionExpiresAt: expiresAt,
		IsActive:              true,
	}
	store.users[user.ID] = user
	return user
}

func seedSurvey(repo *stubRepo, creatorID uuid.UUID, createdAt time.Time) *models.Survey {
	survey := &models.Survey{
		ID:            uuid.New(),
		CreatorID:     creatorID,
		Title:         "seeded",
		EditableUntil: createdAt.AddDate(0, 0, editWindowDays),
		IsActive:      true,
		CreatedAt:     createdAt,
	}
	repo.surveys[survey.ID] = survey
	return survey
}

func TestMonthlyQuotaTable(t *testing.T) {
	tests := []struct {
		tier    enums.SubscriptionTier
		limit   int64
		bounded bool
	}{
		{tier: enums.SubscriptionTierFree, limit: 2, bounded: true},
		{tier: enums.SubscriptionTierMonthly, limit: 5, bounded: true},
		{tier: enums.SubscriptionTierQuarterly, limit: 10, bounded: true},
		{tier: enums.SubscriptionTierSemiAnnual, bounded: false},
		{tier: enums.SubscriptionTier("lifetime"), limit: 0, bounded: true},
	}

	for _, tt := range tests {
		limit, bounded := monthlyQuota(tt.tier)
		if bounded != tt.bounded {
			t.Fatalf("tier %s expected bounded %v got %v", tt.tier, tt.bounded, bounded)
		}
		if bounded && limit != tt.limit {
			t.Fatalf("tier %s expected limit %d got %d", tt.tier, tt.limit, limit)
		}
	}
}

func TestCreateUnknownTierDeniesCreation(t *testing.T) {
	svc, _, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTier("lifetime"), nil)

	_, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "first"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuota {
		t.Fatalf("expected quota error for unrecognized tier, got %v", err)
	}
}

func TestCreateEnforcesFreeTierQuota(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)

	now := time.Now().UTC()
	seedSurvey(repo, user.ID, now.Add(-time.Hour))
	seedSurvey(repo, user.ID, now.Add(-2*time.Hour))

	_, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "third"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuota {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestCreateIgnoresSurveysFromPastMonths(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)

	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	seedSurvey(repo, user.ID, lastMonth)
	seedSurvey(repo, user.ID, lastMonth.Add(time.Hour))

	dto, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "fresh month"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Title != "fresh month" {
		t.Fatalf("unexpected title %q", dto.Title)
	}
}

func TestCreateSemiAnnualIsUnbounded(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierSemiAnnual, nil)

	now := time.Now().UTC()
	for i := 0; i < 25; i++ {
		seedSurvey(repo, user.ID, now.Add(-time.Duration(i+1)*time.Minute))
	}

	if _, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "no limit"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestCreateLapsedSubscriptionFallsBackToFreeQuota(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	expired := time.Now().UTC().Add(-24 * time.Hour)
	user := addUser(userStore, enums.SubscriptionTierMonthly, &expired)

	now := time.Now().UTC()
	seedSurvey(repo, user.ID, now.Add(-time.Hour))
	seedSurvey(repo, user.ID, now.Add(-2*time.Hour))

	_, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "over free quota"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuota {
		t.Fatalf("expected quota error for lapsed subscription, got %v", err)
	}
}

func TestCreateCustomizationRequiresPaidTier(t *testing.T) {
	svc, _, userStore := newTestService(t)
	freeUser := addUser(userStore, enums.SubscriptionTierFree, nil)
	background := "https://cdn.example.com/bg.png"

	_, err := svc.Create(context.Background(), CreateSurveyInput{
		CreatorID:     freeUser.ID,
		Title:         "custom",
		BackgroundURL: &background,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for free tier customization, got %v", err)
	}

	paidUser := addUser(userStore, enums.SubscriptionTierMonthly, nil)
	dto, err := svc.Create(context.Background(), CreateSurveyInput{
		CreatorID:     paidUser.ID,
		Title:         "custom",
		BackgroundURL: &background,
	})
	if err != nil {
		t.Fatalf("create with customization: %v", err)
	}
	if dto.BackgroundURL == nil || *dto.BackgroundURL != background {
		t.Fatal("background url not persisted")
	}
}

func TestCreateSetsEditWindow(t *testing.T) {
	svc, _, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)

	dto, err := svc.Create(context.Background(), CreateSurveyInput{CreatorID: user.ID, Title: "windowed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := time.Now().UTC().AddDate(0, 0, editWindowDays)
	diff := dto.EditableUntil.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expected editable_until near %v, got %v", want, dto.EditableUntil)
	}
	if !dto.IsEditable {
		t.Fatal("fresh survey should be editable")
	}
}

func TestUpdateOutsideEditWindow(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)

	old := seedSurvey(repo, user.ID, time.Now().UTC().AddDate(0, 0, -editWindowDays-5))
	old.EditableUntil = time.Now().UTC().AddDate(0, 0, -5)

	title := "renamed"
	_, err := svc.Update(context.Background(), UpdateSurveyInput{
		CreatorID: user.ID,
		SurveyID:  old.ID,
		Title:     &title,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetOwnedRejectsOtherUsers(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	owner := addUser(userStore, enums.SubscriptionTierFree, nil)
	other := addUser(userStore, enums.SubscriptionTierFree, nil)
	survey := seedSurvey(repo, owner.ID, time.Now().UTC())

	_, err := svc.GetOwned(context.Background(), other.ID, survey.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAddQuestionChoiceRules(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)
	survey := seedSurvey(repo, user.ID, time.Now().UTC())

	// choice-less types refuse choices
	_, err := svc.AddQuestion(context.Background(), AddQuestionInput{
		CreatorID: user.ID,
		SurveyID:  survey.ID,
		Text:      "how do you feel",
		Type:      enums.QuestionTypeWordCloud,
		Choices:   []string{"fine"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	dto, err := svc.AddQuestion(context.Background(), AddQuestionInput{
		CreatorID: user.ID,
		SurveyID:  survey.ID,
		Text:      "pick one",
		Type:      enums.QuestionTypePoll,
		Choices:   []string{"red", "blue"},
	})
	if err != nil {
		t.Fatalf("add poll question: %v", err)
	}
	if len(dto.Questions) != 1 || len(dto.Questions[0].Choices) != 2 {
		t.Fatalf("unexpected question shape %+v", dto.Questions)
	}
}

func TestAddChoiceOnlyForChoiceTypes(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierFree, nil)
	survey := seedSurvey(repo, user.ID, time.Now().UTC())

	dto, err := svc.AddQuestion(context.Background(), AddQuestionInput{
		CreatorID: user.ID,
		SurveyID:  survey.ID,
		Text:      "rate us",
		Type:      enums.QuestionTypeScale,
	})
	if err != nil {
		t.Fatalf("add scale question: %v", err)
	}

	_, err = svc.AddChoice(context.Background(), AddChoiceInput{
		CreatorID:  user.ID,
		SurveyID:   survey.ID,
		QuestionID: dto.Questions[0].ID,
		Label:      "five",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	svc, repo, userStore := newTestService(t)
	user := addUser(userStore, enums.SubscriptionTierSemiAnnual, nil)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedSurvey(repo, user.ID, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.List(context.Background(), user.ID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Surveys) != 3 {
		t.Fatalf("expected 3 surveys, got %d", len(page.Surveys))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	rest, err := svc.List(context.Background(), user.ID, pagination.Params{Limit: 3, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Surveys) != 2 {
		t.Fatalf("expected 2 surveys on second page, got %d", len(rest.Surveys))
	}
	if rest.NextCursor != "" {
		t.Fatal("expected final page to omit cursor")
	}
}
