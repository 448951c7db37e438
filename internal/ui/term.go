// Package ui is the terminal presentation adapter: it renders controller
// state as text and feeds the user's input back as commands. All quiz
// semantics live behind it, in the app and session packages.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/askify/askify-cli/internal/app"
	appI18n "github.com/askify/askify-cli/internal/i18n"
	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/session"
)

// Presenter renders to out and reads answers from in.
type Presenter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPresenter creates a presenter over the given streams.
func NewPresenter(in io.Reader, out io.Writer) *Presenter {
	return &Presenter{in: bufio.NewScanner(in), out: out}
}

// RunQuiz walks the user through the active session question by question
// and shows the celebration summary when the completion edge is reached.
func (p *Presenter) RunQuiz(a *app.App) error {
	sess := a.Current()
	if sess == nil {
		return session.ErrNoQuestions
	}

	total := len(sess.Questions)
	for i, q := range sess.Questions {
		p.printQuestion(i, total, q)

		selected, ok := p.readSelection(q)
		if !ok {
			return io.EOF
		}

		res, err := a.Answer(i, selected)
		if err != nil {
			return err
		}
		if !res.Applied {
			fmt.Fprintln(p.out, appI18n.T("AlreadyAnswered"))
			continue
		}
		p.printFeedback(q, res.Record)

		if res.Complete {
			p.printCelebration(res.Score, total)
		}
	}
	return nil
}

func (p *Presenter) printQuestion(index, total int, q model.Question) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, appI18n.Td("QuestionOf", map[string]any{"Index": index + 1, "Total": total}))
	fmt.Fprintln(p.out, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(p.out, "  %c. %s\n", 'A'+i, opt)
	}
}

// readSelection maps a letter or full option text to an option string,
// re-prompting until the input resolves. Questions without options take the
// line verbatim. Returns false when input is exhausted.
func (p *Presenter) readSelection(q model.Question) (string, bool) {
	for {
		fmt.Fprintf(p.out, "%s> ", appI18n.T("AnswerPrompt"))
		if !p.in.Scan() {
			return "", false
		}
		line := strings.TrimSpace(p.in.Text())
		if line == "" {
			continue
		}
		if len(q.Options) == 0 {
			return line, true
		}
		if selected, ok := resolveOption(q.Options, line); ok {
			return selected, true
		}
		fmt.Fprintln(p.out, appI18n.Td("InvalidSelection", map[string]any{
			"Last": string(rune('A' + len(q.Options) - 1)),
		}))
	}
}

// resolveOption accepts a single selection letter (case-insensitive) or the
// exact option text. Anything else is not a valid selection: an unmapped
// letter must never be graded as a literal answer.
func resolveOption(options []string, line string) (string, bool) {
	if utf8.RuneCountInString(line) == 1 {
		r, _ := utf8.DecodeRuneInString(line)
		idx := int(unicode.ToUpper(r) - 'A')
		if idx >= 0 && idx < len(options) {
			return options[idx], true
		}
	}
	for _, opt := range options {
		if line == opt {
			return opt, true
		}
	}
	return "", false
}

func (p *Presenter) printFeedback(q model.Question, rec model.AnswerRecord) {
	if rec.State == model.AnswerCorrect {
		fmt.Fprintln(p.out, "✅", appI18n.T("CorrectFeedback"))
	} else {
		fmt.Fprintln(p.out, "❌", appI18n.T("WrongFeedback"))
		fmt.Fprintln(p.out, appI18n.Td("CorrectAnswerWas", map[string]any{"Answer": q.CorrectAnswer}))
	}
	if q.Explanation != "" {
		fmt.Fprintf(p.out, "%s: %s\n", appI18n.T("ExplanationTitle"), q.Explanation)
	}
}

func (p *Presenter) printCelebration(score, total int) {
	tier := session.TierFor(score, total)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, appI18n.Td("ScoreSummary", map[string]any{"Score": score, "Total": total}))
	fmt.Fprintln(p.out, tier.Message)
	fmt.Fprintln(p.out, tier.Quote)
}

// PrintReview renders a read-only past session with answer markers and the
// stored score.
func (p *Presenter) PrintReview(sess *session.QuizSession) {
	records := sess.Records()
	total := len(sess.Questions)
	for i, q := range sess.Questions {
		p.printQuestionReview(i, q, records[i])
	}
	if sess.IsComplete() {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, appI18n.Td("ReviewScore", map[string]any{"Score": sess.Score(), "Total": total}))
	}
}

func (p *Presenter) printQuestionReview(index int, q model.Question, rec model.AnswerRecord) {
	fmt.Fprintf(p.out, "\n%d. %s\n", index+1, q.Text)
	for i, opt := range q.Options {
		var marks []string
		if opt == q.CorrectAnswer {
			marks = append(marks, "✓ "+appI18n.T("CorrectMark"))
		}
		if rec.Answered() && rec.Selected == opt {
			marks = append(marks, appI18n.T("YourAnswer"))
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = "  [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintf(p.out, "  %c. %s%s\n", 'A'+i, opt, suffix)
	}
	if q.Explanation != "" {
		fmt.Fprintf(p.out, "%s: %s\n", appI18n.T("ExplanationTitle"), q.Explanation)
	}
}

// PrintHistory renders the stored quiz list with relative dates and
// completion status, newest ordering left to the backend.
func (p *Presenter) PrintHistory(entries []model.HistoryEntry, loggedIn bool) {
	if !loggedIn {
		fmt.Fprintln(p.out, appI18n.T("HistoryLoginPrompt"))
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(p.out, appI18n.T("HistoryEmpty"))
		fmt.Fprintln(p.out, appI18n.T("HistoryEmptyHint"))
		return
	}
	for _, e := range entries {
		status := appI18n.T("InProgress")
		if e.IsComplete {
			status = fmt.Sprintf("%d/%d", e.Score, e.TotalQuestions)
		}
		fmt.Fprintf(p.out, "%6d  %-60s  %-12s  %s\n",
			e.QuizID, truncatePrompt(e.Prompt), FormatDate(e.Date, time.Now()), status)
	}
}

// truncatePrompt shortens long prompts for single-line display.
func truncatePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= 60 {
		return prompt
	}
	return string(runes[:57]) + "..."
}

// dateLayouts covers the backend's SQLite datetime strings plus RFC 3339.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// FormatDate renders a stored date as Today / Yesterday / "N days ago",
// falling back to a short month-day form for anything older than a week.
func FormatDate(raw string, now time.Time) string {
	var parsed time.Time
	var err error
	for _, layout := range dateLayouts {
		if parsed, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return raw
	}

	days := int(now.Sub(parsed).Hours() / 24)
	switch {
	case days <= 0:
		return appI18n.T("Today")
	case days == 1:
		return appI18n.T("Yesterday")
	case days < 7:
		return appI18n.Tp("DaysAgo", days)
	default:
		return parsed.Format("Jan 2")
	}
}
