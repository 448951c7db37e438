package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askify/askify-cli/internal/app"
	"github.com/askify/askify-cli/internal/export"
	"github.com/askify/askify-cli/internal/history"
	appI18n "github.com/askify/askify-cli/internal/i18n"
	"github.com/askify/askify-cli/internal/identity"
	"github.com/askify/askify-cli/internal/llm"
	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/remote"
	"github.com/askify/askify-cli/internal/session"
	"github.com/askify/askify-cli/internal/ui"
)

func main() {
	// A missing .env file is fine; flags and env vars still apply.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "askify",
		Short: "Generate and take quizzes on any topic from the terminal",
	}

	play := playCmd()
	root.AddCommand(
		play,
		historyCmd(),
		reviewCmd(),
		exportCmd(),
		loginCmd(),
		signupCmd(),
		logoutCmd(),
		whoamiCmd(),
	)

	// Make "play" the default when no subcommand is given.
	root.RunE = play.RunE
	root.Flags().AddFlagSet(play.Flags())

	return root
}

// addCommonFlags registers the flags every subcommand understands.
func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server", "http://localhost:5000", "Quiz backend base URL")
	f.String("session-file", "", "Auth session token path (default: user config dir)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [topic]",
		Short: "Generate a quiz and answer it interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("file", "f", "", "Extract quiz material from a file instead of a topic")
	f.StringP("difficulty", "d", "medium", "Question difficulty (easy, medium, hard)")
	f.IntP("num-questions", "n", 5, "Number of questions to generate")
	f.String("quiz-type", "multiple-choice", "Quiz type (multiple-choice, true-false)")
	f.Bool("direct", false, "Generate questions via the LLM API directly, bypassing the backend")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL (direct mode)")
	f.String("llm-key", "ollama", "API key for LLM (direct mode)")
	f.String("llm-model", "llama3.2", "LLM model name (direct mode)")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your saved quizzes",
		RunE:  runHistory,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("filter", "", "Fuzzy-match history by topic")
	return cmd
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <quiz-id>",
		Short: "Show a past quiz with your answers",
		Args:  cobra.ExactArgs(1),
		RunE:  runReview,
	}
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <quiz-id>",
		Short: "Export a past quiz as plain text",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the quiz backend",
		RunE:  runLogin,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("email", "", "Account email")
	return cmd
}

func signupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the quiz backend",
		RunE:  runSignup,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("email", "", "Account email")
	f.String("name", "", "Display name")
	return cmd
}

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current backend session",
		RunE:  runLogout,
	}
	addCommonFlags(cmd)
	return cmd
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the backend reports for this session",
		RunE:  runWhoami,
	}
	addCommonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ASKIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("askify")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/askify")
	v.AddConfigPath("/etc/askify")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// env holds the wired client stack shared by every command.
type env struct {
	client *remote.Client
	tokens *remote.TokenStore
	app    *app.App
	ctx    context.Context
}

// setup builds the client stack: logging, i18n, the saved session token,
// the backend client and the app with its identity and history layers.
func setup(cmd *cobra.Command, gen app.Generator) (*env, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	tokens := remote.NewTokenStore(sessionPath(v))
	client := remote.New(v.GetString("server"), tokens.Load())

	ids := identity.NewProvider(client)
	hist := history.NewSynchronizer(client, ids)
	if gen == nil {
		gen = client
	}
	a := app.New(ids, hist, gen, client)

	return &env{client: client, tokens: tokens, app: a, ctx: cmd.Context()}, nil
}

func sessionPath(v *viper.Viper) string {
	if p := v.GetString("session-file"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "askify", "session")
}

// saveToken persists the client's current token, or clears the file when
// the session ended.
func (e *env) saveToken() {
	var err error
	if token := e.client.Token(); token != "" {
		err = e.tokens.Save(token)
	} else {
		err = e.tokens.Clear()
	}
	if err != nil {
		slog.Warn("failed to persist session token", "error", err)
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	var gen app.Generator
	if v.GetBool("direct") {
		gen = llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	}
	e, err := setup(cmd, gen)
	if err != nil {
		return err
	}

	topic, err := resolveTopic(e, v, args)
	if err != nil {
		return err
	}

	// Establish identity before the session starts so a fresh quiz is
	// registered under the right account.
	if _, err := e.app.Identity.Refresh(e.ctx); err != nil {
		slog.Debug("profile refresh failed, continuing anonymously", "error", err)
	}

	fmt.Println(appI18n.T("GeneratingQuiz"))
	_, err = e.app.StartQuiz(e.ctx, model.GenerationRequest{
		Topic:         topic,
		Difficulty:    v.GetString("difficulty"),
		QuestionCount: v.GetInt("num-questions"),
		QuizType:      v.GetString("quiz-type"),
	})
	if err != nil {
		return fmt.Errorf("start quiz: %w", err)
	}

	p := ui.NewPresenter(os.Stdin, os.Stdout)
	if err := p.RunQuiz(e.app); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	// Let the background attempt save and history refresh settle before exit.
	e.app.Wait()
	e.saveToken()
	return nil
}

// resolveTopic returns the quiz subject: the positional argument, or text
// extracted from --file by the backend.
func resolveTopic(e *env, v *viper.Viper, args []string) (string, error) {
	if path := v.GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		text, err := e.client.ExtractText(e.ctx, filepath.Base(path), f)
		if err != nil {
			return "", fmt.Errorf("extract text: %w", err)
		}
		return text, nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", errors.New("a topic argument or --file is required")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}

	id, entries, err := e.app.SyncSession(e.ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	if q := v.GetString("filter"); q != "" {
		entries = e.app.History.Filter(q)
	}
	ui.NewPresenter(os.Stdin, os.Stdout).PrintHistory(entries, id != nil)
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	sess, err := loadPast(e, args[0])
	if err != nil {
		return err
	}
	ui.NewPresenter(os.Stdin, os.Stdout).PrintReview(sess)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	sess, err := loadPast(e, args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := v.GetString("output"); path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return export.Write(out, sess)
}

func loadPast(e *env, rawID string) (*session.QuizSession, error) {
	quizID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quiz id %q", rawID)
	}
	sess, err := e.app.LoadPast(e.ctx, quizID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, fmt.Errorf("quiz %d not found", quizID)
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	return sess, nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}

	email, password, err := readCredentials(v.GetString("email"))
	if err != nil {
		return err
	}
	id, err := e.app.Identity.Login(e.ctx, email, password)
	if err != nil {
		var authErr *remote.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("login failed: %s", authErr.Message)
		}
		return fmt.Errorf("login: %w", err)
	}
	e.app.Wait()
	e.saveToken()
	fmt.Println(appI18n.Td("LoggedInAs", map[string]any{"Name": id.DisplayName(), "Email": id.Email}))
	return nil
}

func runSignup(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}

	email, password, err := readCredentials(v.GetString("email"))
	if err != nil {
		return err
	}
	id, err := e.app.Identity.Signup(e.ctx, email, password, v.GetString("name"))
	if err != nil {
		var authErr *remote.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("signup failed: %s", authErr.Message)
		}
		return fmt.Errorf("signup: %w", err)
	}
	e.app.Wait()
	e.saveToken()
	fmt.Println(appI18n.Td("LoggedInAs", map[string]any{"Name": id.DisplayName(), "Email": id.Email}))
	return nil
}

// readCredentials prompts for whichever of email and password was not
// provided. Password echo is left on; use a config file or ASKIFY_EMAIL
// for scripting.
func readCredentials(email string) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return email, strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	if err := e.app.Identity.Logout(e.ctx); err != nil {
		slog.Warn("server-side logout failed, local session cleared anyway", "error", err)
	}
	e.app.Wait()
	e.saveToken()
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	id, err := e.app.Identity.Refresh(e.ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	e.app.Wait()
	if id == nil {
		fmt.Println(appI18n.T("NotLoggedIn"))
		return nil
	}
	fmt.Println(appI18n.Td("LoggedInAs", map[string]any{"Name": id.DisplayName(), "Email": id.Email}))
	return nil
}
