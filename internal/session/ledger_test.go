package session

import (
	"errors"
	"testing"

	"github.com/askify/askify-cli/internal/model"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{Text: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice", "Lille"}, CorrectAnswer: "Paris"},
		{Text: "2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"},
		{Text: "Largest ocean?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectAnswer: "Pacific"},
	}
}

func TestSubmitGrading(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		selected string
		want     model.AnswerState
	}{
		{"correct", 0, "Paris", model.AnswerCorrect},
		{"wrong", 0, "Lyon", model.AnswerWrong},
		{"case sensitive", 0, "paris", model.AnswerWrong},
		{"not an option", 0, "London", model.AnswerWrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(sampleQuestions())
			rec, applied, err := l.Submit(tt.index, tt.selected)
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if !applied {
				t.Error("Submit() applied = false, want true on first submission")
			}
			if rec.State != tt.want {
				t.Errorf("Submit() state = %q, want %q", rec.State, tt.want)
			}
			if rec.Selected != tt.selected {
				t.Errorf("Submit() selected = %q, want %q", rec.Selected, tt.selected)
			}
		})
	}
}

func TestSubmitDuplicateIsNoOp(t *testing.T) {
	l := NewLedger(sampleQuestions())

	first, applied, err := l.Submit(1, "4")
	if err != nil || !applied {
		t.Fatalf("first Submit() = (%v, %v, %v)", first, applied, err)
	}

	// A later submission to the same slot must not flip the record,
	// even when the new selection differs.
	second, applied, err := l.Submit(1, "5")
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if applied {
		t.Error("second Submit() applied = true, want false")
	}
	if second != first {
		t.Errorf("second Submit() record = %+v, want original %+v", second, first)
	}
	if got := l.Score(); got != 1 {
		t.Errorf("Score() = %d after duplicate, want 1", got)
	}
}

func TestSubmitIndexOutOfRange(t *testing.T) {
	l := NewLedger(sampleQuestions())
	for _, index := range []int{-1, 3, 100} {
		if _, _, err := l.Submit(index, "Paris"); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Submit(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}
	// A bad index must leave the ledger untouched.
	if l.Complete() {
		t.Error("Complete() = true after rejected submissions")
	}
	if got := l.Score(); got != 0 {
		t.Errorf("Score() = %d after rejected submissions, want 0", got)
	}
}

func TestScoreAndComplete(t *testing.T) {
	l := NewLedger(sampleQuestions())

	if l.Complete() {
		t.Error("Complete() = true on fresh ledger")
	}

	submissions := []struct {
		index    int
		selected string
	}{
		{2, "Pacific"}, // out of presentation order on purpose
		{0, "Lyon"},
	}
	for _, s := range submissions {
		if _, _, err := l.Submit(s.index, s.selected); err != nil {
			t.Fatalf("Submit(%d) error = %v", s.index, err)
		}
	}
	if l.Complete() {
		t.Error("Complete() = true with one slot open")
	}
	if got := l.Score(); got != 1 {
		t.Errorf("Score() = %d, want 1", got)
	}

	if _, _, err := l.Submit(1, "4"); err != nil {
		t.Fatalf("Submit(1) error = %v", err)
	}
	if !l.Complete() {
		t.Error("Complete() = false with all slots answered")
	}
	if got := l.Score(); got != 2 {
		t.Errorf("Score() = %d, want 2", got)
	}
}

func TestRecordsAreACopy(t *testing.T) {
	l := NewLedger(sampleQuestions())
	if _, _, err := l.Submit(0, "Paris"); err != nil {
		t.Fatal(err)
	}

	records := l.Records()
	if len(records) != l.Len() {
		t.Fatalf("Records() len = %d, want %d", len(records), l.Len())
	}
	records[0] = model.AnswerRecord{State: model.AnswerWrong, Selected: "Lyon"}

	rec, err := l.Record(0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.AnswerCorrect {
		t.Error("mutating the Records() slice changed the ledger")
	}
}
