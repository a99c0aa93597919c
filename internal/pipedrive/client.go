// Package pipedrive is a minimal client for the Pipedrive REST API,
// covering the person, deal and metadata operations the sync needs. It
// routes each endpoint to API v1 or v2 and paces itself against the
// account rate limits.
package pipedrive

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

	"go.uber.org/zap"
)

const pageLimit = 500

// v2Roots are the resources already served by API v2. Field metadata,
// filters and user endpoints only exist on v1.
var v2Roots = map[string]bool{
	"deals":         true,
	"persons":       true,
	"organizations": true,
	"pipelines":     true,
	"stages":        true,
	"activities":    true,
}

type Options struct {
	Token   string
	Domain  string
	OwnerID int

	// Profile names a rate profile, or "auto" to pick one from the
	// recent 429 count before each batch.
	Profile string

	Fields *FieldMap

	// BaseURL overrides the account URL. Used in tests.
	BaseURL string

	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

type Client struct {
	httpClient *http.Client
	token      string
	ownerID    int
	rootV1     string
	rootV2     string
	auto       bool
	profile    RateProfile
	fields     *FieldMap
	throttle   throttle
	log        *zap.SugaredLogger
}

func New(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.pipedrive.com", opts.Domain)
	}
	base = strings.TrimRight(base, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	fields := opts.Fields
	if fields == nil {
		fields = DefaultFieldMap()
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	auto := opts.Profile == "" || opts.Profile == "auto"
	profile := Profile(opts.Profile)
	if auto {
		profile = ProfileForErrorCount(0)
	}

	return &Client{
		httpClient: httpClient,
		token:      opts.Token,
		ownerID:    opts.OwnerID,
		rootV1:     base + "/v1",
		rootV2:     base + "/api/v2",
		auto:       auto,
		profile:    profile,
		fields:     fields,
		log:        log,
	}
}

// CurrentProfile returns the pacing profile in effect, re-evaluating it
// from the recent 429 count when running in auto mode.
func (c *Client) CurrentProfile() RateProfile {
	if c.auto {
		return ProfileForErrorCount(c.throttle.count429(time.Hour))
	}
	return c.profile
}

// Fields exposes the configured field map.
func (c *Client) Fields() *FieldMap {
	return c.fields
}

// APIError is a non-2xx answer from the CRM.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive: %s (status %d)", e.Message, e.StatusCode)
}

// isSearchRejected reports the errors the search endpoint returns when
// a term is refused, which trigger the general-term fallback.
func isSearchRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "not allowed") || strings.Contains(msg, "validation failed")
}

type envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	AdditionalData struct {
		Pagination *struct {
			MoreItems bool `json:"more_items_in_collection"`
			NextStart int  `json:"next_start"`
		} `json:"pagination"`
		NextCursor *string `json:"next_cursor"`
	} `json:"additional_data"`
	Error string `json:"error"`
}

func endpointVersion(endpoint string) string {
	e := strings.Trim(endpoint, "/")
	root := e
	if idx := strings.IndexByte(e, '/'); idx >= 0 {
		root = e[:idx]
	}
	if v2Roots[root] {
		return "v2"
	}
	return "v1"
}

func (c *Client) buildURL(endpoint string, query url.Values) string {
	root := c.rootV1
	if endpointVersion(endpoint) == "v2" {
		root = c.rootV2
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.token)
	return root + "/" + strings.Trim(endpoint, "/") + "?" + query.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any) (*envelope, error) {
	profile := c.CurrentProfile()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	fullURL := c.buildURL(endpoint, query)

	var lastErr error
	for attempt := 0; attempt <= profile.MaxRetries; attempt++ {
		c.throttle.wait(profile.Delay)

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !sleepCtx(ctx, backoff(profile, attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			c.throttle.record429(profile.Cooldown)
			wait := retryAfter(profile, attempt)
			c.log.Warnw("rate limited by CRM", "endpoint", endpoint, "attempt", attempt+1, "wait", wait)
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: "too many requests"}
			if !sleepCtx(ctx, wait) {
				return nil, ctx.Err()
			}
			continue
		case resp.StatusCode >= 500:
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
			if !sleepCtx(ctx, backoff(profile, attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}

		if resp.StatusCode >= 400 || !env.Success {
			msg := env.Error
			if msg == "" {
				msg = strings.TrimSpace(string(respBody))
			}
			return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
		}

		return &env, nil
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", endpoint, profile.MaxRetries+1, lastErr)
}

func retryAfter(p RateProfile, attempt int) time.Duration {
	if len(p.RetryAfter429) == 0 {
		return p.BaseBackoff
	}
	if attempt >= len(p.RetryAfter429) {
		attempt = len(p.RetryAfter429) - 1
	}
	return p.RetryAfter429[attempt]
}

func backoff(p RateProfile, attempt int) time.Duration {
	d := p.BaseBackoff << attempt
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// getAllV1 walks start/limit pagination and returns the raw items.
func (c *Client) getAllV1(ctx context.Context, endpoint string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage
	start := 0
	for {
		q := cloneValues(query)
		q.Set("start", fmt.Sprint(start))
		q.Set("limit", fmt.Sprint(pageLimit))

		env, err := c.do(ctx, http.MethodGet, endpoint, q, nil)
		if err != nil {
			return nil, err
		}

		page, err := decodeArray(env.Data)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)

		pg := env.AdditionalData.Pagination
		if pg == nil || !pg.MoreItems {
			return items, nil
		}
		start = pg.NextStart
		if start == 0 {
			start = len(items)
		}
	}
}

// getAllV2 walks cursor pagination and returns the raw items.
func (c *Client) getAllV2(ctx context.Context, endpoint string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage
	cursor := ""
	for {
		q := cloneValues(query)
		q.Set("limit", fmt.Sprint(pageLimit))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		env, err := c.do(ctx, http.MethodGet, endpoint, q, nil)
		if err != nil {
			return nil, err
		}

		page, err := decodeArray(env.Data)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)

		next := env.AdditionalData.NextCursor
		if next == nil || *next == "" {
			return items, nil
		}
		cursor = *next
	}
}

func decodeArray(data json.RawMessage) ([]json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("expected array payload: %w", err)
	}
	return items, nil
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		for _, val := range vals {
			out.Add(k, val)
		}
	}
	return out
}
