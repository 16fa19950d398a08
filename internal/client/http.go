// Package client provides the concrete collaborators the chat core is
// wired with in production: an HTTP caller for the session/roster/history
// endpoints and a websocket live channel.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/chat"
	"github.com/lalith-99/supportchat/internal/models"
)

var (
	_ chat.SessionResolver = (*Client)(nil)
	_ chat.RosterProvider  = (*Client)(nil)
	_ chat.HistoryLoader   = (*Client)(nil)
)

// Client talks to the supportchat HTTP API. It implements
// chat.SessionResolver, chat.RosterProvider, and chat.HistoryLoader.
//
// Login stores the bearer token on the client; every later call carries
// it. The client is not safe for concurrent use during Login, which in
// practice runs before anything else.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Token returns the bearer token obtained by Login. The websocket dial
// needs it for the upgrade request.
func (c *Client) Token() string {
	return c.token
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Login exchanges credentials for a token via POST /api/login.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, "/api/login", username, password)
}

// Register creates an account via POST /api/register and logs it in.
func (c *Client) Register(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, "/api/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (models.Session, error) {
	var resp authResponse
	if err := c.post(ctx, path, credentialsRequest{Username: username, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	c.token = resp.Token
	return models.Session{Role: resp.Role, Identity: resp.Username}, nil
}

// ResolveSession implements chat.SessionResolver via GET /api/session.
func (c *Client) ResolveSession(ctx context.Context) (models.Session, error) {
	var sess models.Session
	if err := c.get(ctx, "/api/session", &sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// ListParticipants implements chat.RosterProvider via GET /api/users.
func (c *Client) ListParticipants(ctx context.Context) ([]string, error) {
	var usernames []string
	if err := c.get(ctx, "/api/users", &usernames); err != nil {
		return nil, err
	}
	return usernames, nil
}

// FetchHistory implements chat.HistoryLoader via GET /api/messages.
// An empty counterpart fetches unfiltered; otherwise ?user=<counterpart>.
func (c *Client) FetchHistory(ctx context.Context, counterpart string) ([]models.Message, error) {
	path := "/api/messages"
	if counterpart != "" {
		path += "?user=" + counterpart
	}
	var messages []models.Message
	if err := c.get(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
