// Package app wires the identity provider, the history synchronizer and the
// session controller into the command surface the presentation layer talks
// to. Quiz-taking correctness never depends on network success: remote saves
// run as best-effort background tasks whose failures only cost the history
// list an update.
package app

import (
	"context"
	"sync"

	"github.com/askify/askify-cli/internal/history"
	"github.com/askify/askify-cli/internal/identity"
	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/session"
)

// Generator produces a question set for a generation request. Both the
// backend client and the direct LLM client satisfy it.
type Generator interface {
	GenerateQuiz(ctx context.Context, req model.GenerationRequest) ([]model.Question, error)
}

// DetailFetcher loads a stored quiz record for review.
type DetailFetcher interface {
	Detail(ctx context.Context, quizID int64) (model.SessionDetail, error)
}

// App is the client-side controller: it owns the active session and routes
// commands between the presentation layer and the session state machine.
type App struct {
	Identity *identity.Provider
	History  *history.Synchronizer

	gen     Generator
	details DetailFetcher
	ctrl    session.Controller

	mu      sync.Mutex
	current *session.QuizSession
	tasks   sync.WaitGroup
}

// New assembles the app. The identity change hook is installed here so that
// every login, signup and logout refreshes the history list exactly once.
func New(ids *identity.Provider, hist *history.Synchronizer, gen Generator, details DetailFetcher) *App {
	a := &App{
		Identity: ids,
		History:  hist,
		gen:      gen,
		details:  details,
	}
	ids.OnChange = func(ctx context.Context) {
		hist.Refresh(ctx)
	}
	a.ctrl.OnComplete = a.onComplete
	return a
}

// Current returns the active session, nil when none has been started.
func (a *App) Current() *session.QuizSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// StartQuiz generates a question set and replaces the active session. When
// an identity is present the new session is registered with the remote
// store; a failed save is tolerated and the quiz proceeds unregistered.
func (a *App) StartQuiz(ctx context.Context, req model.GenerationRequest) (*session.QuizSession, error) {
	questions, err := a.gen.GenerateQuiz(ctx, req)
	if err != nil {
		return nil, err
	}

	sess, err := a.ctrl.Start(questions, req.Topic)
	if err != nil {
		return nil, err
	}

	if a.Identity.Current() != nil {
		a.History.SaveSession(ctx, sess)
		a.spawn(func() { a.History.Refresh(ctx) })
	}

	a.mu.Lock()
	a.current = sess
	a.mu.Unlock()
	return sess, nil
}

// SyncSession re-checks the stored auth session and, when an identity is
// present, fetches the history list for it. Anonymous visitors get an empty
// list without a history request being made.
func (a *App) SyncSession(ctx context.Context) (*model.Identity, []model.HistoryEntry, error) {
	id, err := a.Identity.Refresh(ctx)
	if err != nil {
		return id, nil, err
	}
	if id == nil {
		return nil, nil, nil
	}
	return id, a.History.Refresh(ctx), nil
}

// Answer submits a selection for the active session. Completion detection
// happens inside the controller, synchronously with the ledger mutation;
// the attempt save triggered from the completion edge runs in the
// background and never gates the result.
func (a *App) Answer(index int, selected string) (session.AnswerResult, error) {
	a.mu.Lock()
	sess := a.current
	a.mu.Unlock()
	if sess == nil {
		return session.AnswerResult{}, session.ErrNoQuestions
	}
	return a.ctrl.Answer(sess, index, selected)
}

// onComplete fires once per session, on the completion edge.
func (a *App) onComplete(ev session.CompletionEvent) {
	quizID := ev.Session.RemoteID
	score := ev.Score
	a.spawn(func() {
		ctx := context.Background()
		a.History.SaveAttempt(ctx, quizID, score, true)
		a.History.Refresh(ctx)
	})
}

// LoadPast fetches a stored quiz and reconstructs it read-only for review.
// Review sessions never touch the save-attempt endpoint.
func (a *App) LoadPast(ctx context.Context, quizID int64) (*session.QuizSession, error) {
	detail, err := a.details.Detail(ctx, quizID)
	if err != nil {
		return nil, err
	}
	sess, err := a.ctrl.LoadForReview(detail)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.current = sess
	a.mu.Unlock()
	return sess, nil
}

func (a *App) spawn(fn func()) {
	a.tasks.Add(1)
	go func() {
		defer a.tasks.Done()
		fn()
	}()
}

// Wait blocks until all in-flight best-effort tasks have finished. The
// tasks themselves never block quiz-taking; this exists so a short-lived
// CLI process (and tests) can drain them before exiting.
func (a *App) Wait() {
	a.tasks.Wait()
}
