package results

import (
	"github.com/google/uuid"

	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// ChoiceCount is the vote tally for one choice, zero or not.
type ChoiceCount struct {
	ChoiceID uuid.UUID `json:"choice_id"`
	Label    string    `json:"label"`
	Count    int       `json:"count"`
}

// WordCount is the frequency of one word across every word-cloud answer.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// QuestionResult carries the aggregate for one question. Only the field
// matching the question type is populated.
type QuestionResult struct {
	QuestionID    uuid.UUID          `json:"question_id"`
	Text          string             `json:"text"`
	Type          enums.QuestionType `json:"type"`
	ResponseCount int                `json:"response_count"`
	Choices       []ChoiceCount      `json:"choices,omitempty"`
	Words         []WordCount        `json:"words,omitempty"`
	Average       *float64           `json:"average,omitempty"`
	Entries       []string           `json:"entries,omitempty"`
}

// SurveyResults is the full aggregate a survey owner sees.
type SurveyResults struct {
	SurveyID  uuid.UUID        `json:"survey_id"`
	Title     string           `json:"title"`
	Questions []QuestionResult `json:"questions"`
}
