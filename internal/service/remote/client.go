package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"voice-outbound-service/internal/observability/metrics"
)

// maxErrorBody bounds how much of a failed response is kept in the error message.
const maxErrorBody = 512

// secretParams are query parameters redacted from transport errors.
var secretParams = []string{"api_key", "apikey", "key", "token"}

// ErrorDecoder extracts a readable message from a non-2xx response. An empty
// result keeps the raw body.
type ErrorDecoder func(resp *http.Response, body []byte) string

// Client performs bounded HTTP calls on behalf of one external service.
type Client struct {
	service     string
	timeout     time.Duration
	http        *http.Client
	metrics     *metrics.Metrics
	decodeError ErrorDecoder
}

// NewClient creates a client for service. Every call is bounded by timeout.
func NewClient(service string, timeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		service: service,
		timeout: timeout,
		http:    hc,
		metrics: metrics.DefaultMetrics,
	}
}

// WithErrorDecoder sets how provider error bodies are turned into messages.
func (c *Client) WithErrorDecoder(fn ErrorDecoder) *Client {
	c.decodeError = fn
	return c
}

// Service returns the service name used in errors and metrics.
func (c *Client) Service() string {
	return c.service
}

// Timeout returns the per-call budget.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do sends req and returns the body of a 2xx response.
func (c *Client) Do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, op, req)
	Observe(c.metrics, c.service, op, start, err)
	return body, err
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, FromTransport(c.service, op, redact(err), c.timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, FromTransport(c.service, op, err, c.timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.decodeError != nil {
			if msg := c.decodeError(resp, body); msg != "" {
				return nil, FromStatus(c.service, op, resp.StatusCode, msg)
			}
		}
		msg := body
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, FromStatus(c.service, op, resp.StatusCode, string(msg))
	}
	return body, nil
}

// DoJSON marshals in (when non-nil), sends it, and decodes a 2xx body into out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, op, method, endpoint string, headers map[string]string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: marshal request: %w", c.service, op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Wrap(KindConfig, c.service, op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	body, err := c.Do(ctx, op, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		e := New(KindDecode, c.service, op, "invalid JSON response")
		e.Cause = err
		return e
	}
	return nil
}

// Observe records latency and the error kind of one remote call.
func Observe(m *metrics.Metrics, service, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	kind := ""
	if err != nil {
		kind = string(KindOf(err))
		if kind == "" {
			kind = "unknown"
		}
	}
	m.RecordRemoteCall(service, op, kind, time.Since(start).Seconds())
}

// redact hides credentials carried in the query string of a transport error,
// since url.Error prints the full request URL.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		uerr.URL = "<unparseable url>"
		return err
	}
	q := u.Query()
	changed := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
		uerr.URL = u.String()
	}
	return err
}
