package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
)

// supabaseREST issues PostgREST calls with the project's anon key
type supabaseREST struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func newSupabaseREST(baseURL, apiKey string, logger *zap.Logger) *supabaseREST {
	return &supabaseREST{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// restError is a non-2xx PostgREST response
type restError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *restError) Error() string {
	return fmt.Sprintf("supabase returned %d: %s %s", e.Status, e.Code, e.Message)
}

// do sends a request to /rest/v1/<table> and decodes a JSON response into out.
func (s *supabaseREST) do(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string, out interface{}) error {
	requestID := uuid.NewString()

	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Supabase request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("table", table),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return storeError("supabase "+table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return storeError("read supabase response", err)
	}

	s.logger.Debug("Supabase request completed",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("table", table),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		restErr := &restError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, restErr)
		switch {
		case resp.StatusCode == http.StatusConflict || restErr.Code == "23505":
			return fmt.Errorf("%w: %w", domainErrors.ErrOrderExists, restErr)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %w", &domainErrors.ConfigMissingError{Component: "supabase", Setting: "anon_key"}, restErr)
		default:
			return storeError("supabase "+table, restErr)
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return storeError("decode supabase response", err)
	}
	return nil
}

func eq(v string) string {
	return "eq." + v
}
