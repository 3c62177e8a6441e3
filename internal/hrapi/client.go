package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/username/holiday-console/internal/holiday"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	defaultBackoff = time.Second
)

// TokenSource provides the bearer token for each request.
// An empty token sends the request without Authorization.
type TokenSource interface {
	GetToken() (string, error)
}

// APIError is a non-2xx response or an envelope with success=false
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the Holiday Persistence API and implements holiday.Store
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	logger     *zap.Logger
}

var _ holiday.Store = (*Client)(nil)

// NewClient creates a new HR API client. Zero timeout or retries use defaults.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, retries int, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries <= 0 {
		retries = defaultRetries
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
		backoff: defaultBackoff,
		logger:  logger,
	}
}

// WithBackoff sets the base delay between GET retries
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// ListHolidays returns the holidays of a branch in year, ordered as the API sends them.
// Records that fail validation are dropped with a warning.
func (c *Client) ListHolidays(ctx context.Context, branchID string, year int) ([]holiday.Record, error) {
	query := url.Values{}
	query.Set("branchId", branchID)
	query.Set("year", strconv.Itoa(year))

	var dtos []HolidayDTO
	if err := c.doRequest(ctx, http.MethodGet, "/holidays?"+query.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	records := make([]holiday.Record, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := dto.ToRecord(branchID)
		if err != nil {
			c.logger.Warn("Skipping invalid holiday from API",
				zap.String("id", dto.ID.String()),
				zap.String("date", dto.Date),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	c.logger.Info("Holidays listed",
		zap.String("branch_id", branchID),
		zap.Int("year", year),
		zap.Int("count", len(records)))

	return records, nil
}

// CreateHolidays creates one holiday per date in a single request
func (c *Client) CreateHolidays(ctx context.Context, req holiday.CreateRequest) ([]holiday.Record, error) {
	body := CreateHolidaysRequest{
		BranchID:   req.BranchID,
		Dates:      req.Dates,
		ReasonType: req.ReasonType.String(),
		ReasonText: req.ReasonText,
	}

	var dtos []HolidayDTO
	if err := c.doRequest(ctx, http.MethodPost, "/holidays", body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to create holidays: %w", err)
	}

	records, err := toRecords(dtos, req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created holidays: %w", err)
	}

	c.logger.Info("Holidays created",
		zap.String("branch_id", req.BranchID),
		zap.Int("dates", len(req.Dates)),
		zap.String("reason_type", req.ReasonType.String()))

	return records, nil
}

// UpdateHoliday changes the reason of the holiday with id
func (c *Client) UpdateHoliday(ctx context.Context, id string, reasonType holiday.ReasonType, reasonText string) (*holiday.Record, error) {
	body := UpdateHolidayRequest{
		ReasonType: reasonType.String(),
		ReasonText: reasonText,
	}

	var dto HolidayDTO
	if err := c.doRequest(ctx, http.MethodPut, "/holidays/"+url.PathEscape(id), body, &dto); err != nil {
		return nil, fmt.Errorf("failed to update holiday %s: %w", id, err)
	}

	rec, err := dto.ToRecord("")
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated holiday: %w", err)
	}

	c.logger.Info("Holiday updated",
		zap.String("id", id),
		zap.String("date", rec.Date))

	return &rec, nil
}

// DeleteHoliday removes the holiday with id
func (c *Client) DeleteHoliday(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/holidays/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete holiday %s: %w", id, err)
	}

	c.logger.Info("Holiday deleted", zap.String("id", id))
	return nil
}

// DeleteHolidays removes the listed dates of a branch and year in one request
func (c *Client) DeleteHolidays(ctx context.Context, branchID string, year int, dates []string) (int, error) {
	body := BulkDeleteRequest{
		BranchID: branchID,
		Year:     year,
		Dates:    dates,
	}

	var resp BulkDeleteResponse
	if err := c.doRequest(ctx, http.MethodPost, "/holidays/bulk-delete", body, &resp); err != nil {
		return 0, fmt.Errorf("failed to delete holidays: %w", err)
	}

	c.logger.Info("Holidays deleted",
		zap.String("branch_id", branchID),
		zap.Int("year", year),
		zap.Int("requested", len(dates)),
		zap.Int("deleted", resp.Deleted))

	return resp.Deleted, nil
}

func toRecords(dtos []HolidayDTO, branchID string) ([]holiday.Record, error) {
	records := make([]holiday.Record, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := dto.ToRecord(branchID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// doRequest performs the request. Only GET is retried; mutations go out once.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = c.retries
	}

	var (
		lastErr error
		made    int
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		err := c.doRequestOnce(ctx, method, c.baseURL+path, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts {
			break
		}

		c.logger.Warn("Request failed, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", attempts),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}

	if made > 1 {
		return fmt.Errorf("request failed after %d attempts: %w", made, lastErr)
	}
	return lastErr
}

// retryable is false for client errors, which a retry cannot fix
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// doRequestOnce performs a single HTTP request
func (c *Client) doRequestOnce(ctx context.Context, method, endpoint string, payload []byte, result interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.tokens != nil {
		token, err := c.tokens.GetToken()
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	return decodeBody(resp.StatusCode, respBody, result)
}

// decodeBody unwraps the envelope into result. A bare JSON array or object
// without envelope keys is taken as the data itself.
func decodeBody(status int, body []byte, result interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	data := trimmed
	if trimmed[0] == '{' {
		var env Envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if env.Success != nil && !*env.Success {
			return &APIError{StatusCode: status, Message: env.Message}
		}
		if env.Success != nil || env.Data != nil {
			data = env.Data
		}
	}

	if result == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(body))
}
