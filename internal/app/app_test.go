package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/askify/askify-cli/internal/history"
	"github.com/askify/askify-cli/internal/identity"
	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/remote"
	"github.com/askify/askify-cli/internal/session"
)

// fakeBackend plays the whole remote API for app-level tests.
type fakeBackend struct {
	mu sync.Mutex

	loggedIn  bool
	saveQuiz  int64
	saved     int
	attempts  []attempt
	refreshes int
	entries   []model.HistoryEntry
	detail    model.SessionDetail
	detailErr error
	questions []model.Question
	genErr    error
}

type attempt struct {
	quizID     int64
	score      int
	isComplete bool
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (model.Identity, error) {
	f.mu.Lock()
	f.loggedIn = true
	f.mu.Unlock()
	return model.Identity{ID: 1, Email: email}, nil
}

func (f *fakeBackend) Signup(_ context.Context, email, _, name string) (model.Identity, error) {
	f.mu.Lock()
	f.loggedIn = true
	f.mu.Unlock()
	return model.Identity{ID: 2, Email: email, Name: name}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	f.loggedIn = false
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Profile(context.Context) (model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loggedIn {
		return model.Identity{}, remote.ErrUnauthorized
	}
	return model.Identity{ID: 1, Email: "kim@example.com"}, nil
}

func (f *fakeBackend) History(context.Context) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.entries, nil
}

func (f *fakeBackend) SaveQuiz(context.Context, string, []model.Question) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return f.saveQuiz, nil
}

func (f *fakeBackend) SaveAttempt(_ context.Context, quizID int64, score int, isComplete bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt{quizID, score, isComplete})
	return nil
}

func (f *fakeBackend) GenerateQuiz(context.Context, model.GenerationRequest) ([]model.Question, error) {
	return f.questions, f.genErr
}

// detailAPI adapts fakeBackend to the DetailFetcher interface.
type detailAPI struct{ f *fakeBackend }

func (d detailAPI) Detail(context.Context, int64) (model.SessionDetail, error) {
	return d.f.detail, d.f.detailErr
}

func (f *fakeBackend) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

func (f *fakeBackend) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

func questions() []model.Question {
	return []model.Question{
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "q2", Options: []string{"c", "d"}, CorrectAnswer: "d"},
	}
}

func newApp(f *fakeBackend) *App {
	ids := identity.NewProvider(f)
	hist := history.NewSynchronizer(f, ids)
	return New(ids, hist, f, detailAPI{f})
}

func TestAnonymousQuizNeverSyncs(t *testing.T) {
	f := &fakeBackend{questions: questions(), saveQuiz: 77}
	a := newApp(f)

	sess, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"})
	if err != nil {
		t.Fatalf("StartQuiz() error = %v", err)
	}
	if sess.RemoteID != 0 {
		t.Errorf("anonymous session got remote id %d", sess.RemoteID)
	}

	if _, err := a.Answer(0, "a"); err != nil {
		t.Fatal(err)
	}
	res, err := a.Answer(1, "c")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Complete || res.Score != 1 {
		t.Errorf("result = %+v, want complete 1/2", res)
	}

	a.Wait()
	if f.savedCount() != 0 {
		t.Error("anonymous quiz was registered remotely")
	}
	if f.attemptCount() != 0 {
		t.Error("anonymous quiz attempt was synced")
	}
}

func TestAnonymousSessionStaysLocalAfterMidSessionLogin(t *testing.T) {
	f := &fakeBackend{questions: questions(), saveQuiz: 77}
	a := newApp(f)

	if _, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Answer(0, "a"); err != nil {
		t.Fatal(err)
	}

	// Logging in mid-session must not retroactively register the
	// running quiz; only quizzes started after login are saved.
	if _, err := a.Identity.Login(context.Background(), "kim@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Answer(1, "d"); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	if f.savedCount() != 0 {
		t.Error("mid-session login registered the running quiz")
	}
	if f.attemptCount() != 0 {
		t.Error("mid-session login caused an attempt sync for an unregistered quiz")
	}
}

func TestAuthenticatedQuizSyncsOnCompletion(t *testing.T) {
	f := &fakeBackend{questions: questions(), saveQuiz: 77}
	a := newApp(f)

	if _, err := a.Identity.Login(context.Background(), "kim@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	sess, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.RemoteID != 77 {
		t.Errorf("RemoteID = %d, want 77", sess.RemoteID)
	}

	if _, err := a.Answer(0, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Answer(1, "d"); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	if f.attemptCount() != 1 {
		t.Fatalf("attempt synced %d times, want 1", f.attemptCount())
	}
	f.mu.Lock()
	got := f.attempts[0]
	f.mu.Unlock()
	if got.quizID != 77 || got.score != 2 || !got.isComplete {
		t.Errorf("attempt = %+v, want {77 2 true}", got)
	}
}

func TestDuplicateAnswersDoNotResync(t *testing.T) {
	f := &fakeBackend{questions: questions(), saveQuiz: 77}
	a := newApp(f)
	if _, err := a.Identity.Login(context.Background(), "kim@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"}); err != nil {
		t.Fatal(err)
	}

	for _, sel := range []string{"a", "a", "b"} {
		if _, err := a.Answer(0, sel); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.Answer(1, "d"); err != nil {
		t.Fatal(err)
	}
	// Replay the last answer after completion.
	if _, err := a.Answer(1, "c"); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	if f.attemptCount() != 1 {
		t.Errorf("attempt synced %d times, want 1", f.attemptCount())
	}
}

func TestStartQuizGenerationFailure(t *testing.T) {
	f := &fakeBackend{genErr: errors.New("model unavailable")}
	a := newApp(f)

	if _, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"}); err == nil {
		t.Error("StartQuiz() error = nil, want generation failure")
	}
	if a.Current() != nil {
		t.Error("failed generation left a session behind")
	}
}

func TestStartQuizEmptyQuestionSet(t *testing.T) {
	f := &fakeBackend{questions: nil}
	a := newApp(f)

	if _, err := a.StartQuiz(context.Background(), model.GenerationRequest{Topic: "go"}); !errors.Is(err, session.ErrNoQuestions) {
		t.Errorf("StartQuiz() error = %v, want ErrNoQuestions", err)
	}
}

func TestLoadPastIsReadOnlyAndNeverSyncs(t *testing.T) {
	f := &fakeBackend{detail: model.SessionDetail{
		QuizID:      5,
		Prompt:      "go",
		Questions:   questions(),
		UserAnswers: []string{"a", "d"},
		Score:       2,
		IsComplete:  true,
	}}
	a := newApp(f)

	sess, err := a.LoadPast(context.Background(), 5)
	if err != nil {
		t.Fatalf("LoadPast() error = %v", err)
	}
	if !sess.Review() || sess.Score() != 2 {
		t.Errorf("review session = %+v", sess)
	}

	if _, err := a.Answer(0, "b"); !errors.Is(err, session.ErrReviewOnly) {
		t.Errorf("Answer() on review error = %v, want ErrReviewOnly", err)
	}
	a.Wait()
	if f.attemptCount() != 0 {
		t.Error("review session synced an attempt")
	}
}

func TestAnswerWithoutSession(t *testing.T) {
	a := newApp(&fakeBackend{})
	if _, err := a.Answer(0, "a"); !errors.Is(err, session.ErrNoQuestions) {
		t.Errorf("Answer() without session error = %v, want ErrNoQuestions", err)
	}
}

func TestSyncSessionLoadsHistoryForStoredSession(t *testing.T) {
	// A fresh process with a saved session token: the identity comes back
	// from the profile check, not from a login call, and the history list
	// must still be fetched.
	f := &fakeBackend{loggedIn: true, entries: []model.HistoryEntry{{QuizID: 1, Prompt: "go"}}}
	a := newApp(f)

	id, entries, err := a.SyncSession(context.Background())
	if err != nil {
		t.Fatalf("SyncSession() error = %v", err)
	}
	if id == nil {
		t.Fatal("SyncSession() identity = nil, want the stored session's user")
	}
	if len(entries) != 1 || entries[0].QuizID != 1 {
		t.Errorf("SyncSession() entries = %+v, want the backend's stored quiz", entries)
	}
	if cached := a.History.Entries(); len(cached) != 1 {
		t.Errorf("Entries() after sync = %+v, want cache populated", cached)
	}
}

func TestSyncSessionAnonymous(t *testing.T) {
	f := &fakeBackend{entries: []model.HistoryEntry{{QuizID: 1}}}
	a := newApp(f)

	id, entries, err := a.SyncSession(context.Background())
	if err != nil {
		t.Fatalf("SyncSession() error = %v", err)
	}
	if id != nil {
		t.Errorf("SyncSession() identity = %+v, want nil", id)
	}
	if len(entries) != 0 {
		t.Errorf("SyncSession() entries = %+v, want none for anonymous", entries)
	}
}

func TestLoginRefreshesHistory(t *testing.T) {
	f := &fakeBackend{entries: []model.HistoryEntry{{QuizID: 1, Prompt: "go"}}}
	a := newApp(f)

	if _, err := a.Identity.Login(context.Background(), "kim@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	if got := a.History.Entries(); len(got) != 1 || got[0].QuizID != 1 {
		t.Errorf("Entries() after login = %+v", got)
	}
}

func TestLogoutClearsVisibleHistory(t *testing.T) {
	f := &fakeBackend{entries: []model.HistoryEntry{{QuizID: 1, Prompt: "go"}}}
	a := newApp(f)

	if _, err := a.Identity.Login(context.Background(), "kim@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if len(a.History.Entries()) != 1 {
		t.Fatal("precondition: history populated after login")
	}

	// After logout the backend answers with an empty list for the
	// anonymous visitor and the local cache follows.
	f.mu.Lock()
	f.entries = nil
	f.mu.Unlock()
	if err := a.Identity.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	if got := a.History.Entries(); len(got) != 0 {
		t.Errorf("Entries() after logout = %+v, want empty", got)
	}
}
