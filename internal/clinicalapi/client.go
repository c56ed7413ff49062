package clinicalapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	ResourceAppointments  = "/appointments"
	ResourceConsultations = "/consultations"

	HeaderUserID        = "X-User-ID"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	MIMEApplicationJSON = "application/json"

	maxErrorBodyBytes = 4 << 10
)

var (
	// ErrUnauthorized means the remote API rejected the viewer's session.
	// Callers must treat it as terminal for the session, never retry it.
	ErrUnauthorized = errors.New("clinical api: unauthorized")
	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("clinical api: unexpected status")
	ErrCreateRequest    = errors.New("clinical api: create request")
	ErrSendRequest      = errors.New("clinical api: send request")
	ErrDecodeResponse   = errors.New("clinical api: decode response")
)

// Credentials are forwarded to the remote API on every call.
type Credentials struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

// Source is the read side of the remote clinical API the portal depends on.
type Source interface {
	ListAppointments(ctx context.Context, creds Credentials) ([]Appointment, error)
	ListConsultations(ctx context.Context, creds Credentials) ([]Consultation, error)
}

// Client talks to the remote clinical API over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Log     *zap.Logger
}

// NewClient creates a Client. A non-positive ratePerSecond disables outbound limiting.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, logger *zap.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(limit, burst),
		Log:     logger,
	}
}

func (c *Client) ListAppointments(ctx context.Context, creds Credentials) ([]Appointment, error) {
	var out []Appointment
	if err := c.list(ctx, ResourceAppointments, creds, func(raw json.RawMessage) error {
		var a Appointment
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListConsultations(ctx context.Context, creds Credentials) ([]Consultation, error) {
	var out []Consultation
	if err := c.list(ctx, ResourceConsultations, creds, func(raw json.RawMessage) error {
		var rc Consultation
		if err := json.Unmarshal(raw, &rc); err != nil {
			return err
		}
		out = append(out, rc)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// list fetches a JSON array and hands each element to decode. Elements that
// fail to decode are logged and skipped so one bad record never sinks a fetch.
func (c *Client) list(ctx context.Context, resource string, creds Credentials, decode func(json.RawMessage) error) error {
	// the limiter is shared by every viewer; waiting for it counts against
	// the request timeout
	if c.HTTP.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.HTTP.Timeout)
		defer cancel()
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		c.Log.Warn("clinicalapi.Client rate limit wait abandoned",
			zap.String("resource", resource),
			zap.Error(err),
		)
		return fmt.Errorf("%w: rate limit: %v", ErrSendRequest, err)
	}

	url := c.BaseURL + resource
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.Log.Error("clinicalapi.Client error creating HTTP request",
			zap.String("url", url),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrCreateRequest, err)
	}
	req.Header.Set(HeaderAccept, MIMEApplicationJSON)
	if creds.UserID != "" {
		req.Header.Set(HeaderUserID, creds.UserID)
	}
	if creds.Token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+creds.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("clinicalapi.Client error sending HTTP request",
			zap.String("url", url),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrSendRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.Log.Info("clinicalapi.Client session rejected",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("user_id", creds.UserID),
		)
		return fmt.Errorf("%w: %s returned %d", ErrUnauthorized, resource, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.Log.Warn("clinicalapi.Client unexpected status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, resource, resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.Log.Warn("clinicalapi.Client error decoding response",
			zap.String("url", url),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDecodeResponse, err)
	}

	skipped := 0
	for i, raw := range items {
		if err := decode(raw); err != nil {
			skipped++
			c.Log.Debug("clinicalapi.Client skipping malformed record",
				zap.String("resource", resource),
				zap.Int("index", i),
				zap.Error(err),
			)
		}
	}
	if skipped > 0 {
		c.Log.Warn("clinicalapi.Client skipped malformed records",
			zap.String("resource", resource),
			zap.Int("skipped", skipped),
			zap.Int("total", len(items)),
		)
	}
	return nil
}
