package enums

import "fmt"

// QuestionType tags a survey question with its answer and aggregation shape.
type QuestionType string

const (
	QuestionTypeWordCloud QuestionType = "word_cloud"
	QuestionTypePoll      QuestionType = "poll"
	QuestionTypeScale     QuestionType = "scale"
	QuestionTypeRanking   QuestionType = "ranking"
	QuestionTypeVideo     QuestionType = "video"
)

var validQuestionTypes = []QuestionType{
	QuestionTypeWordCloud,
	QuestionTypePoll,
	QuestionTypeScale,
	QuestionTypeRanking,
	QuestionTypeVideo,
}

// String implements fmt.Stringer.
func (q QuestionType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestionType.
func (q QuestionType) IsValid() bool {
	for _, candidate := range validQuestionTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// HasChoices reports whether questions of this type carry choice rows.
func (q QuestionType) HasChoices() bool {
	return q == QuestionTypePoll || q == QuestionTypeRanking
}

// ParseQuestionType converts raw input into a QuestionType.
func ParseQuestionType(value string) (QuestionType, error) {
	for _, candidate := range validQuestionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid question type %q", value)
}
