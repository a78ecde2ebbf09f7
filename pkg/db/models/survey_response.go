package models

import (
	"time"

	"github.com/google/uuid"
)

// SurveyResponse stores one anonymous participant answer to one question.
// Participants are identified by an opaque id, never by a User row.
type SurveyResponse struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	QuestionID    uuid.UUID  `gorm:"column:question_id;type:uuid;not null;index"`
	ParticipantID string     `gorm:"column:participant_id;not null"`
	AnswerText    string     `gorm:"column:answer_text"`
	ChoiceID      *uuid.UUID `gorm:"column:choice_id;type:uuid"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
