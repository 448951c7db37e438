package session

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/askify/askify-cli/internal/model"
)

// topicSummaryLimit caps the stored display label for a quiz topic.
const topicSummaryLimit = 200

// QuizSession is one run through a generated question set. A session is
// tied to a local id from birth; the remote id is attached only after the
// backend accepts the save, and only once.
type QuizSession struct {
	LocalID      uuid.UUID
	RemoteID     int64 // 0 until persisted
	TopicSummary string
	Questions    []model.Question
	CreatedAt    time.Time

	ledger *Ledger

	review         bool
	reviewScore    int
	reviewComplete bool
	completedFired bool
}

// Score returns the current correct count. Sessions loaded for review report
// the stored score rather than recomputing from the ledger.
func (s *QuizSession) Score() int {
	if s.review {
		return s.reviewScore
	}
	return s.ledger.Score()
}

// IsComplete reports whether every question has an answer. Review sessions
// report the stored completion flag.
func (s *QuizSession) IsComplete() bool {
	if s.review {
		return s.reviewComplete
	}
	return s.ledger.Complete()
}

// Review reports whether the session is a read-only reconstruction of a
// past quiz.
func (s *QuizSession) Review() bool {
	return s.review
}

// Records returns the per-question answer records.
func (s *QuizSession) Records() []model.AnswerRecord {
	return s.ledger.Records()
}

// AttachRemoteID records the backend identifier the first time a save
// succeeds. Later calls are ignored: a session is registered remotely at
// most once.
func (s *QuizSession) AttachRemoteID(id int64) {
	if s.RemoteID == 0 {
		s.RemoteID = id
	}
}

// CompletionEvent is emitted exactly once per session, on the answer that
// fills the last unanswered slot.
type CompletionEvent struct {
	Session *QuizSession
	Score   int
	Total   int
}

// AnswerResult is the outcome of a single answer submission.
type AnswerResult struct {
	Record   model.AnswerRecord
	Applied  bool // false when the index was already answered
	Complete bool // true from the completion edge onward
	Score    int
}

// Controller owns quiz session lifecycles: construction, answer routing,
// completion detection and review reconstruction.
type Controller struct {
	// OnComplete, when set, is invoked synchronously on the completion edge,
	// within the same call that answered the final question.
	OnComplete func(CompletionEvent)
}

// Start constructs a fresh session over the generated questions with an
// all-unanswered ledger.
func (c *Controller) Start(questions []model.Question, topic string) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &QuizSession{
		LocalID:      uuid.New(),
		TopicSummary: truncateRunes(topic, topicSummaryLimit),
		Questions:    questions,
		CreatedAt:    time.Now(),
		ledger:       NewLedger(questions),
	}, nil
}

// Answer submits a selection for the question at index and recomputes
// completion. The completion event fires on the call that answers the last
// open question and never again: rejected duplicates cannot re-fire it.
// Completion is evaluated here, synchronously, before any persistence is
// attempted.
func (c *Controller) Answer(s *QuizSession, index int, selected string) (AnswerResult, error) {
	if s.review {
		return AnswerResult{}, ErrReviewOnly
	}

	record, applied, err := s.ledger.Submit(index, selected)
	if err != nil {
		return AnswerResult{}, err
	}

	res := AnswerResult{
		Record:  record,
		Applied: applied,
		Score:   s.ledger.Score(),
	}
	if s.ledger.Complete() {
		res.Complete = true
		if applied && !s.completedFired {
			s.completedFired = true
			if c.OnComplete != nil {
				c.OnComplete(CompletionEvent{Session: s, Score: res.Score, Total: s.ledger.Len()})
			}
		}
	}
	return res, nil
}

// LoadForReview reconstructs a session from a stored quiz record. The stored
// score and completion flag are trusted as-is; partial histories may lack a
// full answer array, so nothing is re-derived and nothing is ever saved from
// a review session.
func (c *Controller) LoadForReview(detail model.SessionDetail) (*QuizSession, error) {
	if len(detail.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	ledger := NewLedger(detail.Questions)
	for i, selected := range detail.UserAnswers {
		if i >= ledger.Len() || selected == "" {
			continue
		}
		ledger.Submit(i, selected)
	}

	return &QuizSession{
		LocalID:        uuid.New(),
		RemoteID:       detail.QuizID,
		TopicSummary:   truncateRunes(detail.Prompt, topicSummaryLimit),
		Questions:      detail.Questions,
		CreatedAt:      time.Now(),
		ledger:         ledger,
		review:         true,
		reviewScore:    detail.Score,
		reviewComplete: detail.IsComplete,
	}, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
