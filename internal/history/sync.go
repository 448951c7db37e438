// Package history keeps the locally displayed quiz history reconciled with
// the remote store. Every write is best-effort: a failed save is logged and
// forgotten, and never blocks or rolls back the quiz-taking flow.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/session"
)

// API is the slice of the backend client the synchronizer needs.
type API interface {
	History(ctx context.Context) ([]model.HistoryEntry, error)
	SaveQuiz(ctx context.Context, prompt string, questions []model.Question) (int64, error)
	SaveAttempt(ctx context.Context, quizID int64, score int, isComplete bool) error
}

// EpochSource reports identity transitions; a refresh result is applied only
// when the epoch it was requested under is still current.
type EpochSource interface {
	Epoch() uint64
}

// Synchronizer pushes session results to the remote store and maintains the
// cached history list.
type Synchronizer struct {
	api    API
	epochs EpochSource
	group  singleflight.Group

	mu        sync.Mutex
	entries   []model.HistoryEntry
	attempted map[int64]bool
}

// NewSynchronizer creates a synchronizer over the backend client.
func NewSynchronizer(api API, epochs EpochSource) *Synchronizer {
	return &Synchronizer{
		api:       api,
		epochs:    epochs,
		attempted: make(map[int64]bool),
	}
}

// SaveSession registers a freshly generated session with the remote store
// and attaches the returned quiz id. The id is assigned at most once; a
// session that already carries one is left alone. Failure is logged only.
func (s *Synchronizer) SaveSession(ctx context.Context, sess *session.QuizSession) {
	if sess.RemoteID != 0 {
		return
	}
	id, err := s.api.SaveQuiz(ctx, sess.TopicSummary, sess.Questions)
	if err != nil {
		slog.Warn("failed to save quiz", "error", err)
		return
	}
	sess.AttachRemoteID(id)
	slog.Info("quiz saved", "quiz_id", id)
}

// SaveAttempt stores the final score for a registered quiz. Sessions that
// were never persisted (quizID zero, created anonymously) are skipped, and
// each quiz id is attempt-synced at most once. Failure is logged only and
// never undoes the local completion.
func (s *Synchronizer) SaveAttempt(ctx context.Context, quizID int64, score int, isComplete bool) {
	if quizID == 0 {
		return
	}
	s.mu.Lock()
	if s.attempted[quizID] {
		s.mu.Unlock()
		return
	}
	s.attempted[quizID] = true
	s.mu.Unlock()

	if err := s.api.SaveAttempt(ctx, quizID, score, isComplete); err != nil {
		slog.Warn("failed to save quiz attempt", "quiz_id", quizID, "error", err)
		return
	}
	slog.Info("quiz attempt saved", "quiz_id", quizID, "score", score)
}

// Refresh fetches the history list. Concurrent refreshes under the same
// identity collapse into a single request. A response that lands after the
// identity has changed (logout, login as someone else) is discarded so a
// stale payload cannot repopulate the list. Fetch failures leave the cache
// empty rather than erroring: a history the user cannot see is rendered as
// no history.
func (s *Synchronizer) Refresh(ctx context.Context) []model.HistoryEntry {
	epoch := s.epochs.Epoch()
	key := fmt.Sprintf("history-%d", epoch)

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.api.History(ctx)
	})

	if s.epochs.Epoch() != epoch {
		slog.Debug("discarding history response from superseded identity", "epoch", epoch)
		return s.Entries()
	}

	var entries []model.HistoryEntry
	if err != nil {
		slog.Warn("failed to fetch history", "error", err)
	} else {
		entries, _ = v.([]model.HistoryEntry)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return s.Entries()
}

// Entries returns a copy of the cached history list, in the order the
// remote store provided it.
func (s *Synchronizer) Entries() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter returns cached entries whose prompt fuzzily matches query, keeping
// the remote ordering. An empty query returns everything.
func (s *Synchronizer) Filter(query string) []model.HistoryEntry {
	entries := s.Entries()
	if query == "" {
		return entries
	}
	return lo.Filter(entries, func(e model.HistoryEntry, _ int) bool {
		return fuzzy.MatchFold(query, e.Prompt)
	})
}
