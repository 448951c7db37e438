package model

import "strings"

// AnswerState represents the terminal-transition state of a single answer slot.
type AnswerState string

const (
	// AnswerUnanswered means no option has been selected yet.
	AnswerUnanswered AnswerState = "unanswered"
	// AnswerCorrect means the selected option matched the correct answer.
	AnswerCorrect AnswerState = "correct"
	// AnswerWrong means the selected option did not match the correct answer.
	AnswerWrong AnswerState = "wrong"
)

// Question is a single generated quiz question. JSON field names follow the
// backend wire format. Questions are immutable once a session starts.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// AnswerRecord holds the selection state for one question index.
// The only allowed transition is Unanswered -> {Correct, Wrong}.
type AnswerRecord struct {
	State    AnswerState
	Selected string
}

// Answered reports whether the record has reached a terminal state.
func (r AnswerRecord) Answered() bool {
	return r.State != AnswerUnanswered
}

// Identity is the authenticated user as reported by the backend.
// A nil *Identity means an anonymous visitor.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the user's name, falling back to the email local part.
func (id *Identity) DisplayName() string {
	if id == nil {
		return ""
	}
	if id.Name != "" {
		return id.Name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

// HistoryEntry is the backend's summary of a past quiz. The client treats it
// as a read-only projection for list rendering.
type HistoryEntry struct {
	QuizID         int64  `json:"quiz_id"`
	Prompt         string `json:"prompt"`
	Score          int    `json:"score"`
	Date           string `json:"date"`
	IsComplete     bool   `json:"is_complete"`
	TotalQuestions int    `json:"total_questions"`
	QuestionsJSON  string `json:"questions_json,omitempty"`
}

// SessionDetail is the full stored record of one past quiz, as returned by
// the quiz-detail endpoint.
type SessionDetail struct {
	QuizID      int64      `json:"quiz_id"`
	Prompt      string     `json:"prompt"`
	Questions   []Question `json:"questions"`
	UserAnswers []string   `json:"user_answers"`
	Score       int        `json:"score"`
	IsComplete  bool       `json:"is_complete"`
	Date        string     `json:"date"`
}

// GenerationRequest describes the question set to generate.
type GenerationRequest struct {
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	QuizType      string `json:"quizType"`
}
