// Package hubapi is the REST client for the Taxbase hub and metrics
// backends. It injects the bearer token into every authenticated request
// and funnels backend-reported token rejection into a single forced-logout
// hook.
package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/taxbase/metricshub/internal/errors"
)

// TokenSource supplies the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a plain function to TokenSource.
type TokenSourceFunc func() string

// Token implements TokenSource.
func (f TokenSourceFunc) Token() string { return f() }

// ExpiryHandler is notified when the backend rejects the token on a
// non-login endpoint. Implementations must be safe to call from several
// in-flight requests; the session store de-duplicates on its side.
type ExpiryHandler interface {
	SessionExpired()
}

// ExpiryHandlerFunc adapts a plain function to ExpiryHandler.
type ExpiryHandlerFunc func()

// SessionExpired implements ExpiryHandler.
func (f ExpiryHandlerFunc) SessionExpired() { f() }

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	expiry  ExpiryHandler
	log     zerolog.Logger
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithExpiryHandler sets the forced-logout hook.
func WithExpiryHandler(expiry ExpiryHandler) ClientOption {
	return func(c *Client) {
		c.expiry = expiry
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// requestOptions tune a single request.
type requestOptions struct {
	skipAuth bool
	// loginEndpoint maps a 401 to ErrInvalidCredentials instead of firing
	// the expiry handler. The login endpoint's 401 means wrong password,
	// not a dead session.
	loginEndpoint bool
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts requestOptions) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.doJSON] marshal body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[Client.doJSON] NewRequest")
	}
	req.Header.Set("Content-Type", "application/json")
	c.prepare(req, opts)

	return c.execute(req, path, out, opts)
}

func (c *Client) prepare(req *http.Request, opts requestOptions) {
	req.Header.Set("X-Request-ID", uuid.New().String())
	if opts.skipAuth || c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) execute(req *http.Request, path string, out any, opts requestOptions) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrTransport, "%s %s: %v", req.Method, path, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, path, opts); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrapf(apperrors.ErrTransport, "decoding %s response: %v", path, err)
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response, path string, opts requestOptions) error {
	if resp.StatusCode < 400 {
		return nil
	}

	detail := readDetail(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if opts.loginEndpoint {
			return apperrors.ErrInvalidCredentials
		}
		c.log.Warn().Str("path", path).Msg("backend rejected token")
		if c.expiry != nil {
			c.expiry.SessionExpired()
		}
		return apperrors.ErrSessionExpired
	case http.StatusNotFound:
		return apperrors.Wrapf(apperrors.ErrNotFound, "%s: %s", path, detail)
	case http.StatusConflict:
		return apperrors.Wrapf(apperrors.ErrConflict, "%s: %s", path, detail)
	default:
		return apperrors.Wrapf(apperrors.ErrTransport, "%s returned %d: %s", path, resp.StatusCode, detail)
	}
}

// readDetail pulls the human-readable message from an error body. The two
// backends use different envelopes.
func readDetail(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "unknown error"
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	if payload.Error != "" {
		return payload.Error
	}
	return "unknown error"
}

// Upload sends a multipart file to an ingestion endpoint and returns the
// raw response payload. The field and file names are endpoint-specific.
func (c *Client) Upload(ctx context.Context, path, fieldName, fileName string, file io.Reader) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Upload] CreateFormFile")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Wrap(err, "[Client.Upload] copy file")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "[Client.Upload] close writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Upload] NewRequest")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.prepare(req, requestOptions{})

	var out json.RawMessage
	if err := c.execute(req, path, &out, requestOptions{}); err != nil {
		return nil, err
	}
	return out, nil
}
