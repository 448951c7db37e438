// Package export renders a quiz session as a flat text artifact, the
// copy-to-clipboard / file-download surface of the app.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/session"
)

// Text renders the session's question blocks separated by blank lines, in
// question order regardless of the order answers were submitted. Completed
// sessions get a trailing score line.
func Text(sess *session.QuizSession) string {
	records := sess.Records()

	blocks := make([]string, 0, len(sess.Questions)+1)
	for i, q := range sess.Questions {
		blocks = append(blocks, questionBlock(i, q, records[i]))
	}
	if sess.IsComplete() {
		blocks = append(blocks, fmt.Sprintf("Score: %d out of %d correct!", sess.Score(), len(sess.Questions)))
	}
	return strings.Join(blocks, "\n\n")
}

// Write writes the rendered session to w with a trailing newline.
func Write(w io.Writer, sess *session.QuizSession) error {
	if _, err := io.WriteString(w, Text(sess)); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func questionBlock(index int, q model.Question, rec model.AnswerRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. %s", index+1, q.Text)

	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%s. %s", optionLabel(i), opt)
		if opt == q.CorrectAnswer {
			sb.WriteString("  [correct]")
		}
		if rec.Answered() && rec.Selected == opt {
			sb.WriteString("  [your answer]")
		}
	}

	if q.Explanation != "" {
		sb.WriteString("\nExplanation: ")
		sb.WriteString(q.Explanation)
	}
	return sb.String()
}

// optionLabel maps option index 0..n to A..Z, then wraps with a numeric
// suffix for improbably long option lists.
func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%c%d", 'A'+i%26, i/26)
}
