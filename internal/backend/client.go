package backend

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080/cgi-bin/run.sh"
	tracerName     = "stinstaller/backend"
)

// Dispatcher sends execution commands without waiting on their outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) error
}

// Querier reads backend-reported truth.
type Querier interface {
	Status(ctx context.Context) (*StatusResponse, error)
	Log(ctx context.Context, lines int) (*LogResponse, error)
}

// Client talks to the install backend's CGI endpoint. Every call is
// "<base>?action=<name>&...".
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: callers bound every call with a context.
		http:   &http.Client{},
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) LoadConfig(ctx context.Context) (*ConfigResponse, error) {
	var resp ConfigResponse
	if err := c.doJSON(ctx, http.MethodGet, "config_load", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveConfig(ctx context.Context, cfg map[string]string) (*SaveConfigResponse, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	var resp SaveConfigResponse
	if err := c.doJSON(ctx, http.MethodPost, "config_save", nil, cfg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Log(ctx context.Context, lines int) (*LogResponse, error) {
	params := url.Values{}
	if lines > 0 {
		params.Set("lines", strconv.Itoa(lines))
	}
	var resp LogResponse
	if err := c.doJSON(ctx, http.MethodGet, "log", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause asks the backend to pause and returns its acknowledgement.
func (c *Client) Pause(ctx context.Context) (*PauseResponse, error) {
	var resp PauseResponse
	if err := c.doJSON(ctx, http.MethodGet, string(CommandPause), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dispatch sends cmd and discards the response body.
func (c *Client) Dispatch(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodGet, cmd.Action(), cmd.Params(), nil, nil)
}

func (c *Client) CheckTemp(ctx context.Context) (*TempFilesResponse, error) {
	var resp TempFilesResponse
	if err := c.doJSON(ctx, http.MethodGet, "check_temp", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CleanTemp(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "clean_temp", nil, nil, nil)
}

func (c *Client) actionURL(action string, params url.Values) string {
	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	query.Set("action", action)
	return c.baseURL + "?" + query.Encode()
}

func (c *Client) doJSON(ctx context.Context, method, action string, params url.Values, body any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+action, trace.WithAttributes(
		attribute.String("backend.action", action),
		attribute.String("http.method", method),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		}
		span.End()
	}()
	for key := range params {
		span.SetAttributes(attribute.String("backend.param."+key, params.Get(key)))
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.actionURL(action, params), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload statusPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = strings.TrimSpace(payload.Error)
	}
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
