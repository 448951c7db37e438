package export

import (
	"strings"
	"testing"

	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/session"
)

func testQuestions() []model.Question {
	return []model.Question{
		{
			Text:          "Capital of France?",
			Options:       []string{"Paris", "Lyon"},
			CorrectAnswer: "Paris",
			Explanation:   "Paris has been the capital since 987.",
		},
		{
			Text:          "2 + 2?",
			Options:       []string{"3", "4"},
			CorrectAnswer: "4",
		},
	}
}

func TestTextOrderIndependentOfAnswerOrder(t *testing.T) {
	var c session.Controller
	sess, err := c.Start(testQuestions(), "mixed")
	if err != nil {
		t.Fatal(err)
	}

	// Answer in reverse presentation order.
	if _, err := c.Answer(sess, 1, "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Answer(sess, 0, "Paris"); err != nil {
		t.Fatal(err)
	}

	out := Text(sess)
	first := strings.Index(out, "1. Capital of France?")
	second := strings.Index(out, "2. 2 + 2?")
	if first == -1 || second == -1 || first > second {
		t.Errorf("blocks out of question order:\n%s", out)
	}
}

func TestTextBlockContents(t *testing.T) {
	var c session.Controller
	sess, err := c.Start(testQuestions(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Answer(sess, 0, "Lyon"); err != nil {
		t.Fatal(err)
	}

	out := Text(sess)

	for _, want := range []string{
		"A. Paris  [correct]",
		"B. Lyon  [your answer]",
		"Explanation: Paris has been the capital since 987.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Score:") {
		t.Error("incomplete session rendered a score line")
	}

	blocks := strings.Split(out, "\n\n")
	if len(blocks) != 2 {
		t.Errorf("got %d blank-line separated blocks, want 2", len(blocks))
	}
}

func TestTextCompleteSessionScoreLine(t *testing.T) {
	var c session.Controller
	sess, err := c.Start(testQuestions(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Answer(sess, 0, "Paris"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Answer(sess, 1, "3"); err != nil {
		t.Fatal(err)
	}

	out := Text(sess)
	if !strings.HasSuffix(out, "Score: 1 out of 2 correct!") {
		t.Errorf("missing or misplaced score line:\n%s", out)
	}
}

func TestTextReviewSessionUsesStoredScore(t *testing.T) {
	var c session.Controller
	sess, err := c.LoadForReview(model.SessionDetail{
		QuizID:      9,
		Questions:   testQuestions(),
		UserAnswers: []string{"Paris", "4"},
		Score:       1, // stored score wins over recomputation
		IsComplete:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(Text(sess), "Score: 1 out of 2 correct!") {
		t.Errorf("review export did not use the stored score:\n%s", Text(sess))
	}
}

func TestOptionLabelWraps(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "A1"},
		{27, "B1"},
	}
	for _, tt := range tests {
		if got := optionLabel(tt.index); got != tt.want {
			t.Errorf("optionLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
