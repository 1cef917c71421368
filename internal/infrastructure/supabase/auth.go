package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned when the password grant is refused
var ErrInvalidCredentials = errors.New("invalid login credentials")

// Session is the token pair returned by a successful sign-in
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthClient talks to the Supabase GoTrue endpoints
type AuthClient struct {
	client  *http.Client
	baseURL string
	anonKey string
	logger  *zap.Logger
}

func NewAuthClient(baseURL, anonKey string, logger *zap.Logger) *AuthClient {
	return &AuthClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		logger:  logger,
	}
}

type authError struct {
	Status           int
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *authError) message() string {
	for _, m := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if m != "" {
			return m
		}
	}
	return http.StatusText(e.Status)
}

// SignInWithPassword exchanges email and password for a session
// POST /auth/v1/token?grant_type=password
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in request: %w", err)
	}

	resp, data, err := a.post(ctx, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		authErr := &authError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, authErr)

		a.logger.Warn("Supabase sign-in refused",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reason", authErr.message()))

		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("supabase sign-in returned %d: %s", resp.StatusCode, authErr.message())
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("supabase sign-in returned no access token")
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken
// POST /auth/v1/logout
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	resp, data, err := a.post(ctx, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		authErr := &authError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, authErr)
		return fmt.Errorf("supabase sign-out returned %d: %s", resp.StatusCode, authErr.message())
	}
	return nil
}

func (a *AuthClient) post(ctx context.Context, path, bearer string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if bearer == "" {
		bearer = a.anonKey
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Supabase auth request failed",
			zap.String("path", strings.SplitN(path, "?", 2)[0]),
			zap.Error(err))
		return nil, nil, fmt.Errorf("supabase auth request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read supabase response: %w", err)
	}
	return resp, data, nil
}
