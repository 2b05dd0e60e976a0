package client

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

	"github.com/mealauth/mealauth/pkg/domain"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// maxSnippet caps the raw body kept on a MalformedResponseError.
const maxSnippet = 512

// Client is the meal-auth backend API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport routes requests through rt instead of http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithTimeout overrides the overall request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a new API client.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token the client sends, if any.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckStatus asks the backend whether the current token is still valid.
// The request is cache-busted and marked no-store because validity can change
// server-side between app opens. Only the status code matters.
func (c *Client) CheckStatus(ctx context.Context) error {
	params := url.Values{}
	params.Set("_", uuid.NewString())

	resp, err := c.send(ctx, http.MethodGet, "/api/auth/status?"+params.Encode(), nil, true)
	if err != nil {
		return fmt.Errorf("client.CheckStatus: %w", err)
	}
	if resp.status != http.StatusOK {
		return fmt.Errorf("client.CheckStatus: %w", resp.httpError())
	}
	return nil
}

// VerifyDevice pairs this device with an employee and returns its access token.
func (c *Client) VerifyDevice(ctx context.Context, empNo, name, password string) (*domain.VerifyDeviceResponse, error) {
	req := domain.VerifyDeviceRequest{EmpNo: empNo, Name: name, Password: password}
	var out domain.VerifyDeviceResponse
	if err := c.exchange(ctx, http.MethodPost, "/api/auth/verify_device", req, &out); err != nil {
		return nil, fmt.Errorf("client.VerifyDevice: %w", err)
	}
	return &out, nil
}

// AuthorizeScan records a meal for the token's employee after a QR decode.
func (c *Client) AuthorizeScan(ctx context.Context) (*domain.ScanResult, error) {
	var out domain.ScanResult
	if err := c.exchange(ctx, http.MethodPost, "/api/meal/qr-scan", struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("client.AuthorizeScan: %w", err)
	}
	return &out, nil
}

type response struct {
	status    int
	body      []byte
	requestID string
}

// httpError builds an HTTPError, pulling "detail" out of the body when it parses.
func (r *response) httpError() *HTTPError {
	return &HTTPError{StatusCode: r.status, Detail: parseDetail(r.body), RequestID: r.requestID}
}

// exchange reads the body as text and parses it before looking at the status,
// so a non-JSON body is always reported as malformed, whatever the status.
func (c *Client) exchange(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.send(ctx, method, path, body, false)
	if err != nil {
		return err
	}
	if !json.Valid(resp.body) {
		return &MalformedResponseError{
			StatusCode: resp.status,
			Body:       snippet(resp.body),
			HTML:       looksLikeHTML(resp.body),
			RequestID:  resp.requestID,
		}
	}
	if resp.status < 200 || resp.status > 299 {
		return resp.httpError()
	}
	if out != nil {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return &MalformedResponseError{StatusCode: resp.status, Body: snippet(resp.body), RequestID: resp.requestID}
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, noStore bool) (*response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if noStore {
		req.Header.Set("Cache-Control", "no-store")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err, RequestID: requestID}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err), RequestID: requestID}
	}
	return &response{status: resp.StatusCode, body: raw, requestID: requestID}, nil
}

// parseDetail reads FastAPI-style {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(payload.Detail, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(payload.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func looksLikeHTML(body []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(body)))
	return strings.HasPrefix(s, "<!doctype") || strings.HasPrefix(s, "<html")
}

func snippet(body []byte) string {
	if len(body) > maxSnippet {
		return string(body[:maxSnippet])
	}
	return string(body)
}
