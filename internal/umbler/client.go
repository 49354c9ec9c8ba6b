// Package umbler is the client for the Umbler Talk bulk-send API, the source
// of campaign delivery records.
package umbler

import (
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

	"barops_backend/platform/config"
	"barops_backend/platform/logger"
	"barops_backend/platform/retry"

	"golang.org/x/time/rate"
)

// ErrSessionNotFound is returned when the provider does not know a session.
var ErrSessionNotFound = errors.New("bulk-send session not found")

// Credentials authenticate requests for one organization.
type Credentials struct {
	APIToken       string
	OrganizationID string
}

// StatusError is a non-success provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("umbler returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the provider API with pacing and bounded retries.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	log        *logger.Logger
}

func NewClient(cfg config.UmblerConfig, log *logger.Logger) *Client {
	timeout := cfg.GetUmblerTimeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	rps := cfg.GetUmblerRequestsPerSecond()
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	retries := cfg.GetUmblerMaxRetries()
	if retries < 0 {
		retries = 0
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetUmblerBaseURL(), "/"),
		http:       &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: retries,
		log:        log,
	}
}

// ListSessions returns the newest sessions first.
func (c *Client) ListSessions(ctx context.Context, creds Credentials, take int) ([]Session, error) {
	q := url.Values{}
	q.Set("organizationId", creds.OrganizationID)
	q.Set("Take", strconv.Itoa(take))
	q.Set("OrderBy", "CreatedAtUTC")
	q.Set("Order", "Desc")

	var page sessionPage
	if err := c.get(ctx, creds, "/v1/bulk-send-session/", q, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetSession returns the session with its aggregate counters.
func (c *Client) GetSession(ctx context.Context, creds Credentials, sessionID string) (Session, error) {
	q := url.Values{}
	q.Set("organizationId", creds.OrganizationID)

	var session Session
	path := "/v1/bulk-send-session/" + url.PathEscape(sessionID) + "/"
	if err := c.get(ctx, creds, path, q, &session); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	if session.ID == "" {
		session.ID = sessionID
	}
	return session, nil
}

// ListMessagesSent returns one page of a session's delivery records.
func (c *Client) ListMessagesSent(ctx context.Context, creds Credentials, sessionID string, skip, take int) ([]MessageSent, error) {
	q := url.Values{}
	q.Set("organizationId", creds.OrganizationID)
	q.Set("Skip", strconv.Itoa(skip))
	q.Set("Take", strconv.Itoa(take))
	q.Set("Behavior", "GetSliceOnly")

	var page messagePage
	path := "/v1/bulk-send-session/" + url.PathEscape(sessionID) + "/messages-sent/"
	if err := c.get(ctx, creds, path, q, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, path string, query url.Values, out interface{}) error {
	if creds.APIToken == "" || creds.OrganizationID == "" {
		return errors.New("umbler credentials not configured")
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	return retry.Do(ctx, c.log, "umbler GET "+path, c.maxRetries+1, 500*time.Millisecond, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Stop(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Stop(err)
		}
		req.Header.Set("Authorization", "Bearer "+creds.APIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Stop(ctx.Err())
			}
			return fmt.Errorf("umbler request failed: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= http.StatusBadRequest {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return statusErr
			}
			return retry.Stop(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Stop(fmt.Errorf("decode umbler response: %w", err))
		}
		return nil
	})
}
