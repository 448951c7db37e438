package session

import (
	"errors"

	"github.com/samber/lo"

	"github.com/askify/askify-cli/internal/model"
)

var (
	// ErrNoQuestions is returned when a session is started with an empty question set.
	ErrNoQuestions = errors.New("question set is empty")
	// ErrIndexOutOfRange is returned when an answer targets a question index that does not exist.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrReviewOnly is returned when an answer is submitted to a session loaded for review.
	ErrReviewOnly = errors.New("session is read-only review")
)

// Ledger keeps one AnswerRecord per question and enforces at most one answer
// per index. Records only ever move Unanswered -> {Correct, Wrong}.
type Ledger struct {
	questions []model.Question
	records   []model.AnswerRecord
}

// NewLedger creates an all-unanswered ledger over the given questions.
func NewLedger(questions []model.Question) *Ledger {
	records := make([]model.AnswerRecord, len(questions))
	for i := range records {
		records[i].State = model.AnswerUnanswered
	}
	return &Ledger{questions: questions, records: records}
}

// Submit records the selected option for the question at index. If the index
// is already answered the existing terminal record is returned unchanged and
// applied is false; duplicate submissions are a deliberate no-op so that
// repeated input events cannot flip a recorded answer.
func (l *Ledger) Submit(index int, selected string) (model.AnswerRecord, bool, error) {
	if index < 0 || index >= len(l.records) {
		return model.AnswerRecord{}, false, ErrIndexOutOfRange
	}
	if l.records[index].Answered() {
		return l.records[index], false, nil
	}

	state := model.AnswerWrong
	if selected == l.questions[index].CorrectAnswer {
		state = model.AnswerCorrect
	}
	l.records[index] = model.AnswerRecord{State: state, Selected: selected}
	return l.records[index], true, nil
}

// Record returns the record at index.
func (l *Ledger) Record(index int) (model.AnswerRecord, error) {
	if index < 0 || index >= len(l.records) {
		return model.AnswerRecord{}, ErrIndexOutOfRange
	}
	return l.records[index], nil
}

// Records returns a copy of all records, indexed like the question set.
func (l *Ledger) Records() []model.AnswerRecord {
	out := make([]model.AnswerRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Score counts records in the Correct state.
func (l *Ledger) Score() int {
	return lo.CountBy(l.records, func(r model.AnswerRecord) bool {
		return r.State == model.AnswerCorrect
	})
}

// Complete reports whether every record has left the Unanswered state.
func (l *Ledger) Complete() bool {
	return lo.EveryBy(l.records, model.AnswerRecord.Answered)
}

// Len returns the number of answer slots.
func (l *Ledger) Len() int {
	return len(l.records)
}
