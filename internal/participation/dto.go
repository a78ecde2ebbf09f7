package participation

import (
	"github.com/google/uuid"
)

// AnswerInput is one participant answer to a single question.
type AnswerInput struct {
	QuestionID uuid.UUID  `json:"question_id" validate:"required"`
	Text       string     `json:"text,omitempty"`
	ChoiceID   *uuid.UUID `json:"choice_id,omitempty"`
}

// SubmitInput carries a participant's full submission for a survey.
type SubmitInput struct {
	SurveyID      uuid.UUID
	ParticipantID string        `json:"participant_id,omitempty"`
	Answers       []AnswerInput `json:"answers" validate:"required,min=1"`
}

// SubmitResult echoes the participant identity and how many answers landed.
type SubmitResult struct {
	ParticipantID string `json:"participant_id"`
	AnswerCount   int    `json:"answer_count"`
}
