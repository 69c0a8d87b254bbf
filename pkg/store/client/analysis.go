package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/de-tools/ratio-atlas/pkg/adapters"
	"github.com/de-tools/ratio-atlas/pkg/models/api"
	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "http://localhost:8000"

	analyzePath = "/api/analyze/"
	healthPath  = "/api/health"

	maxBodySize = 4 << 20
)

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every call made by the client. Callers may still pass
// a shorter deadline through the context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// AnalyzeStock fetches the ratio analysis for ticker. Any failure is returned
// as a *RequestError.
func (c *Client) AnalyzeStock(ctx context.Context, ticker domain.Ticker) (*domain.AnalysisResult, error) {
	normalized, err := domain.NormalizeTicker(string(ticker))
	if err != nil {
		return nil, &RequestError{Kind: KindValidation, Message: "Please enter a valid ticker symbol", Err: err}
	}

	requestID := uuid.NewString()
	target := c.baseURL + analyzePath + url.PathEscape(normalized.String())
	logger := zerolog.Ctx(ctx).With().
		Str("request_id", requestID).
		Str("ticker", normalized.String()).
		Logger()
	logger.Debug().Str("url", target).Msg("fetching stock analysis")

	body, status, err := c.get(ctx, target, requestID)
	if err != nil {
		reqErr := &RequestError{Kind: transportKind(err), Message: resolveMessage("", err), Err: err}
		c.logFailure(&logger, reqErr)
		return nil, reqErr
	}

	if status < 200 || status > 299 {
		cause := fmt.Errorf("%s %s: %d %s", http.MethodGet, target, status, http.StatusText(status))
		reqErr := &RequestError{
			Kind:       KindStatus,
			StatusCode: status,
			Message:    resolveMessage(errorDetail(body), cause),
			Err:        cause,
		}
		c.logFailure(&logger, reqErr)
		return nil, reqErr
	}

	var resp api.AnalysisResponse
	if err := decodeStrict(body, &resp); err != nil {
		cause := fmt.Errorf("decode analysis response: %w", err)
		reqErr := &RequestError{Kind: KindDecode, StatusCode: status, Message: resolveMessage("", cause), Err: cause}
		logger.Error().
			Err(err).
			Str("base_url", c.baseURL).
			Int("status", status).
			Msg("analysis response does not match the expected shape")
		return nil, reqErr
	}

	return adapters.MapAPIAnalysisToDomain(resp), nil
}

// HealthCheck probes the backend. Errors carry the underlying cause as is.
func (c *Client) HealthCheck(ctx context.Context) (*domain.HealthStatus, error) {
	logger := zerolog.Ctx(ctx)
	target := c.baseURL + healthPath

	body, status, err := c.get(ctx, target, uuid.NewString())
	if err != nil {
		logger.Error().Err(err).Str("base_url", c.baseURL).Msg("health check failed")
		return nil, &RequestError{Kind: transportKind(err), Message: err.Error(), Err: err}
	}
	if status < 200 || status > 299 {
		cause := fmt.Errorf("%s %s: %d %s", http.MethodGet, target, status, http.StatusText(status))
		logger.Error().Err(cause).Str("base_url", c.baseURL).Msg("health check failed")
		return nil, &RequestError{Kind: KindStatus, StatusCode: status, Message: cause.Error(), Err: cause}
	}

	var resp api.HealthResponse
	err = json.Unmarshal(body, &resp)
	if err == nil {
		err = api.Validate(resp)
	}
	if err != nil {
		cause := fmt.Errorf("decode health response: %w", err)
		logger.Error().Err(cause).Str("base_url", c.baseURL).Msg("health check failed")
		return nil, &RequestError{Kind: KindDecode, StatusCode: status, Message: cause.Error(), Err: cause}
	}

	return &domain.HealthStatus{Status: resp.Status, Service: resp.Service}, nil
}

func (c *Client) get(ctx context.Context, target, requestID string) ([]byte, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) logFailure(logger *zerolog.Logger, err *RequestError) {
	logger.Error().
		Err(err.Err).
		Str("base_url", c.baseURL).
		Str("kind", string(err.Kind)).
		Int("status", err.StatusCode).
		Msg("failed to fetch stock analysis")
}

// decodeStrict rejects unknown fields, trailing data and missing required
// fields.
func decodeStrict(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after response body")
	}
	return api.Validate(v)
}

func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Detail
}
