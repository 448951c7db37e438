package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/askify/askify-cli/internal/model"
)

// sessionCookieName is the backend's auth cookie.
const sessionCookieName = "askify_session"

// Client talks to the Askify backend API. It holds the auth session token
// captured from login/signup responses and replays it as a cookie on every
// request.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.Mutex
	token string
}

// New creates a backend client for the given base URL. An initial token may
// be empty (anonymous visitor).
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		token:   token,
	}
}

// Token returns the current auth session token, empty when anonymous.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpc.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK && out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

// captureSession pulls the auth cookie out of a login/signup response.
func (c *Client) captureSession(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName {
			c.setToken(ck.Value)
			return
		}
	}
}

type authResponse struct {
	Status string         `json:"status"`
	User   model.Identity `json:"user"`
}

// Login authenticates with email and password. A rejection comes back as
// *AuthError; transport problems come back as plain errors.
func (c *Client) Login(ctx context.Context, email, password string) (model.Identity, error) {
	resp, err := c.postJSON(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Identity{}, &AuthError{Message: errorBody(resp)}
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Identity{}, fmt.Errorf("login: decode response: %w", err)
	}
	c.captureSession(resp)
	return body.User, nil
}

// Signup creates an account. When name is empty the backend derives one from
// the email local part.
func (c *Client) Signup(ctx context.Context, email, password, name string) (model.Identity, error) {
	resp, err := c.postJSON(ctx, "/api/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("signup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Identity{}, &AuthError{Message: errorBody(resp)}
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Identity{}, fmt.Errorf("signup: decode response: %w", err)
	}
	c.captureSession(resp)
	return body.User, nil
}

// Logout ends the server-side session and drops the local token. The token
// is cleared even when the request fails: the local state must not outlive
// the user's intent to sign out.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.postJSON(ctx, "/api/logout", struct{}{})
	c.setToken("")
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	resp.Body.Close()
	return nil
}

// Profile fetches the identity behind the current session token.
// A 401 means the session went stale and the caller is anonymous.
func (c *Client) Profile(ctx context.Context) (model.Identity, error) {
	var ident model.Identity
	resp, err := c.getJSON(ctx, "/api/user-profile", &ident)
	if err != nil {
		return model.Identity{}, fmt.Errorf("profile: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return ident, nil
	case http.StatusUnauthorized:
		resp.Body.Close()
		return model.Identity{}, ErrUnauthorized
	default:
		defer resp.Body.Close()
		return model.Identity{}, statusError("profile", resp)
	}
}

// History returns the stored quiz list in whatever order the backend
// provides; the client never re-sorts it.
func (c *Client) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	resp, err := c.getJSON(ctx, "/api/quiz-history", &entries)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError("history", resp)
	}
	return entries, nil
}

// Detail fetches the full stored record of one past quiz.
func (c *Client) Detail(ctx context.Context, quizID int64) (model.SessionDetail, error) {
	var detail model.SessionDetail
	resp, err := c.getJSON(ctx, "/api/quiz-detail?id="+strconv.FormatInt(quizID, 10), &detail)
	if err != nil {
		return model.SessionDetail{}, fmt.Errorf("detail: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return detail, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return model.SessionDetail{}, ErrNotFound
	default:
		defer resp.Body.Close()
		return model.SessionDetail{}, statusError("detail", resp)
	}
}

// ExtractText uploads a document and returns the extracted plain text.
func (c *Client) ExtractText(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("extract: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("extract", resp)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("extract: decode response: %w", err)
	}
	return body.Text, nil
}

// GenerateQuiz asks the backend to produce a question set.
func (c *Client) GenerateQuiz(ctx context.Context, req model.GenerationRequest) ([]model.Question, error) {
	resp, err := c.postJSON(ctx, "/api/generate-quiz", req)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("generate quiz", resp)
	}

	var questions []model.Question
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		return nil, fmt.Errorf("generate quiz: decode response: %w", err)
	}
	return questions, nil
}

// SaveQuiz registers a newly generated quiz under the current identity and
// returns the assigned quiz id.
func (c *Client) SaveQuiz(ctx context.Context, prompt string, questions []model.Question) (int64, error) {
	resp, err := c.postJSON(ctx, "/api/save-quiz", map[string]any{
		"prompt":    prompt,
		"questions": questions,
	})
	if err != nil {
		return 0, fmt.Errorf("save quiz: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, statusError("save quiz", resp)
	}

	var body struct {
		QuizID int64 `json:"quiz_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("save quiz: decode response: %w", err)
	}
	return body.QuizID, nil
}

// SaveAttempt stores the score and completion flag for a registered quiz.
func (c *Client) SaveAttempt(ctx context.Context, quizID int64, score int, isComplete bool) error {
	resp, err := c.postJSON(ctx, "/api/save-quiz-attempt", map[string]any{
		"quiz_id":     quizID,
		"score":       score,
		"is_complete": isComplete,
	})
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("save attempt", resp)
	}
	return nil
}
