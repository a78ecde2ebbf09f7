package surveys

import (
	"time"

	"github.com/google/uuid"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// CreateSurveyInput carries the fields for a new survey.
type CreateSurveyInput struct {
	CreatorID     uuid.UUID
	Title         string `json:"title" validate:"required,max=255"`
	Description   string `json:"description"`
	BackgroundURL *string `json:"background_url,omitempty"`
	LogoURL       *string `json:"logo_url,omitempty"`
}

// UpdateSurveyInput carries partial survey changes.
type UpdateSurveyInput struct {
	CreatorID     uuid.UUID
	SurveyID      uuid.UUID
	Title         *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Description   *string `json:"description,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	BackgroundURL *string `json:"background_url,omitempty"`
	LogoURL       *string `json:"logo_url,omitempty"`
}

// AddQuestionInput appends a question to an owned survey.
type AddQuestionInput struct {
	CreatorID uuid.UUID
	SurveyID  uuid.UUID
	Text      string             `json:"text" validate:"required"`
	Type      enums.QuestionType `json:"type" validate:"required"`
	Position  int                `json:"position"`
	Choices   []string           `json:"choices,omitempty"`
}

// AddChoiceInput appends a choice to a poll or ranking question.
type AddChoiceInput struct {
	CreatorID  uuid.UUID
	SurveyID   uuid.UUID
	QuestionID uuid.UUID
	Label      string `json:"label" validate:"required"`
}

// ChoiceDTO is the transport shape of a question choice.
type ChoiceDTO struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// QuestionDTO is the transport shape of a survey question.
type QuestionDTO struct {
	ID       uuid.UUID          `json:"id"`
	Text     string             `json:"text"`
	Type     enums.QuestionType `json:"type"`
	Position int                `json:"position"`
	Choices  []ChoiceDTO        `json:"choices,omitempty"`
}

// SurveyDTO is the transport shape of a survey with its questions.
type SurveyDTO struct {
	ID            uuid.UUID     `json:"id"`
	CreatorID     uuid.UUID     `json:"creator_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	EditableUntil time.Time     `json:"editable_until"`
	IsEditable    bool          `json:"is_editable"`
	IsActive      bool          `json:"is_active"`
	BackgroundURL *string       `json:"background_url,omitempty"`
	LogoURL       *string       `json:"logo_url,omitempty"`
	Questions     []QuestionDTO `json:"questions"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SurveyListDTO is the cursor-paginated list payload.
type SurveyListDTO struct {
	Surveys    []SurveyDTO `json:"surveys"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func choiceFromModel(c models.Choice) ChoiceDTO {
	return ChoiceDTO{ID: c.ID, Label: c.Label}
}

func questionFromModel(q models.Question) QuestionDTO {
	dto := QuestionDTO{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		Position: q.Position,
	}
	if q.Type.HasChoices() {
		dto.Choices = make([]ChoiceDTO, 0, len(q.Choices))
		for _, c := range q.Choices {
			dto.Choices = append(dto.Choices, choiceFromModel(c))
		}
	}
	return dto
}

// FromModel converts a survey model into its transport shape.
func FromModel(s *models.Survey, now time.Time) *SurveyDTO {
	if s == nil {
		return nil
	}
	questions := make([]QuestionDTO, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, questionFromModel(q))
	}
	return &SurveyDTO{
		ID:            s.ID,
		CreatorID:     s.CreatorID,
		Title:         s.Title,
		Description:   s.Description,
		EditableUntil: s.EditableUntil,
		IsEditable:    s.IsEditable(now),
		IsActive:      s.IsActive,
		BackgroundURL: s.BackgroundURL,
		LogoURL:       s.LogoURL,
		Questions:     questions,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
