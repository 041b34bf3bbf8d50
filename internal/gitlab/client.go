// Package gitlab is a small REST client for the GitLab API, covering only
// the epic and issue reads the hierarchy builders need. Calls are paced by a
// fixed delay to respect the instance's rate limits, and retried a bounded
// number of times on 429 and 5xx responses.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ruppin/TheMatrix/internal/hierarchy"
)

const perPage = 100

// Options tunes client behavior. Zero values fall back to defaults.
type Options struct {
	Timeout        time.Duration
	RateLimitDelay time.Duration
	MaxRetries     int
}

// Client talks to one GitLab instance with one token.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	delay   time.Duration
	retries int
}

// NewClient builds a client for the given instance URL and personal access
// token.
func NewClient(baseURL, token string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimitDelay == 0 {
		opts.RateLimitDelay = 500 * time.Millisecond
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: opts.Timeout},
		delay:   opts.RateLimitDelay,
		retries: opts.MaxRetries,
	}
}

// GetEpic fetches a single epic by group and IID. A 404 maps to
// hierarchy.ErrRootNotFound so builders can treat it as fatal.
func (c *Client) GetEpic(ctx context.Context, groupID, epicIID int) (hierarchy.Item, error) {
	path := fmt.Sprintf("/api/v4/groups/%d/epics/%d", groupID, epicIID)
	var payload epicPayload
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		if isNotFound(err) {
			return hierarchy.Item{}, fmt.Errorf("epic %d in group %d: %w", epicIID, groupID, hierarchy.ErrRootNotFound)
		}
		return hierarchy.Item{}, fmt.Errorf("fetching epic %d in group %d: %w", epicIID, groupID, err)
	}
	return payload.toItem(groupID), nil
}

// GetChildEpics lists the direct child epics of an epic, using the
// server-side parent_id filter. Some GitLab versions apply this filter
// incorrectly; scope-wide extraction avoids it entirely.
func (c *Client) GetChildEpics(ctx context.Context, groupID, parentEpicID int) ([]hierarchy.Item, error) {
	path := fmt.Sprintf("/api/v4/groups/%d/epics", groupID)
	query := url.Values{"parent_id": {strconv.Itoa(parentEpicID)}}
	payloads, err := getPaged[epicPayload](ctx, c, path, query)
	if err != nil {
		return nil, fmt.Errorf("fetching child epics of %d: %w", parentEpicID, err)
	}
	return epicsToItems(payloads, groupID), nil
}

// GetAllGroupEpics lists every epic in a group, ignoring parent
// relationships. Used by scope-wide extraction, which resolves edges
// in memory instead of trusting the parent_id filter.
func (c *Client) GetAllGroupEpics(ctx context.Context, groupID int) ([]hierarchy.Item, error) {
	path := fmt.Sprintf("/api/v4/groups/%d/epics", groupID)
	payloads, err := getPaged[epicPayload](ctx, c, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching epics for group %d: %w", groupID, err)
	}
	slog.Debug("fetched group epics", "group", groupID, "count", len(payloads))
	return epicsToItems(payloads, groupID), nil
}

// GetAllEpicsForGroups concatenates GetAllGroupEpics over several groups.
// A failing group degrades to empty with a warning so one bad scope entry
// doesn't sink the whole fetch.
func (c *Client) GetAllEpicsForGroups(ctx context.Context, groupIDs []int) ([]hierarchy.Item, error) {
	var all []hierarchy.Item
	for _, groupID := range groupIDs {
		epics, err := c.GetAllGroupEpics(ctx, groupID)
		if err != nil {
			slog.Warn("could not fetch group epics, skipping group",
				"group", groupID, "error", err)
			continue
		}
		all = append(all, epics...)
	}
	slog.Info("fetched scope epics", "groups", len(groupIDs), "epics", len(all))
	return all, nil
}

// GetEpicIssues lists the issues assigned to an epic.
func (c *Client) GetEpicIssues(ctx context.Context, groupID, epicIID int) ([]hierarchy.Item, error) {
	path := fmt.Sprintf("/api/v4/groups/%d/epics/%d/issues", groupID, epicIID)
	payloads, err := getPaged[issuePayload](ctx, c, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching issues of epic %d: %w", epicIID, err)
	}
	items := make([]hierarchy.Item, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, p.toItem())
	}
	return items, nil
}

// statusError carries the HTTP status for retry and not-found decisions.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gitlab returned %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// getJSON performs one paced GET with bounded retries and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.getJSONPage(ctx, path, query, out)
	return err
}

// getJSONPage is getJSON plus the X-Next-Page header for pagination.
func (c *Client) getJSONPage(ctx context.Context, path string, query url.Values, out any) (string, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying request", "url", u, "attempt", attempt)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.delay):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return "", fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("PRIVATE-TOKEN", c.token)

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = &statusError{status: resp.StatusCode, body: trimBody(body)}
			if retryable(resp.StatusCode) {
				continue
			}
			return "", lastErr
		}
		if err := json.Unmarshal(body, out); err != nil {
			return "", fmt.Errorf("decoding response from %s: %w", path, err)
		}
		return resp.Header.Get("X-Next-Page"), nil
	}
	return "", fmt.Errorf("request to %s failed after %d attempts: %w", path, c.retries+1, lastErr)
}

// getPaged follows X-Next-Page until the listing is exhausted.
func getPaged[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(perPage))

	var all []T
	page := "1"
	for page != "" {
		query.Set("page", page)
		var batch []T
		next, err := c.getJSONPage(ctx, path, query, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		page = next
	}
	return all, nil
}

func trimBody(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
