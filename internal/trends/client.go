// Package trends fetches interest-over-time series from Google Trends.
package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// DefaultBaseURL is the public Google Trends host.
const DefaultBaseURL = "https://trends.google.com"

const (
	explorePath   = "/trends/api/explore"
	multilinePath = "/trends/api/widgetdata/multiline"
	timeseriesID  = "TIMESERIES"
	userAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ErrNoData is returned when Google Trends has no timeline for a query.
var ErrNoData = errors.New("trends: no data for query")

// StatusError is returned for non-200 upstream responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trends request %s returned %d", e.URL, e.Code)
}

// Client talks to the Google Trends JSON endpoints. It keeps the cookies
// handed out by the warm-up request for all later calls.
type Client struct {
	baseURL    string
	language   string
	tzOffset   int
	geo        string
	retries    int
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	warmed     bool
}

var _ contract.SeriesSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The client is copied, so
// the jar and timeout set later never leak into the caller's value.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			copied := *client
			c.httpClient = &copied
		}
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithLanguage sets the hl parameter.
func WithLanguage(hl string) Option {
	return func(c *Client) {
		if hl != "" {
			c.language = hl
		}
	}
}

// WithTZOffset sets the tz parameter in minutes.
func WithTZOffset(tz int) Option {
	return func(c *Client) { c.tzOffset = tz }
}

// WithGeo restricts queries to a region. Empty means worldwide.
func WithGeo(geo string) Option {
	return func(c *Client) { c.geo = geo }
}

// WithRetries retries each upstream call up to n extra times.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackOff overrides the retry schedule.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		if fn != nil {
			c.newBackOff = fn
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a Google Trends client.
func New(opts ...Option) (*Client, error) {
	client := &Client{
		baseURL:    DefaultBaseURL,
		language:   contract.DefaultLanguage,
		tzOffset:   contract.DefaultTZOffset,
		httpClient: &http.Client{Timeout: contract.DefaultHTTPTimeout},
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.httpClient.Jar = jar
	}
	return client, nil
}

// NewFromConfig builds a client from the validated configuration.
func NewFromConfig(cfg *contract.Config) (*Client, error) {
	return New(
		WithLanguage(cfg.Language),
		WithTZOffset(cfg.TZOffset),
		WithGeo(cfg.Geo),
		WithRetries(cfg.Retries),
		WithTimeout(cfg.Timeout),
	)
}

// widget is one entry of the explore response.
type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type timelineEntry struct {
	Time    string `json:"time"`
	Value   []int  `json:"value"`
	HasData []bool `json:"hasData"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelineEntry `json:"timelineData"`
	} `json:"default"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

// FetchSeries returns the interest-over-time series for one topic. A query
// with no upstream data yields an empty series.
func (c *Client) FetchSeries(ctx context.Context, topic string, timeframe string) (schema.Series, error) {
	series := schema.Series{Topic: topic, Timeframe: timeframe}
	points, err := c.InterestOverTime(ctx, topic, timeframe)
	if errors.Is(err, ErrNoData) {
		return series, nil
	}
	if err != nil {
		return series, err
	}
	series.Points = points
	return series, nil
}

// InterestOverTime runs the warm-up, explore and multiline calls for one
// keyword and decodes the timeline.
func (c *Client) InterestOverTime(ctx context.Context, topic string, timeframe string) ([]schema.Point, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("topic must not be empty")
	}
	if err := c.warmUp(ctx); err != nil {
		return nil, err
	}

	w, err := c.explore(ctx, topic, timeframe)
	if err != nil {
		return nil, err
	}
	return c.multiline(ctx, w)
}

func (c *Client) warmUp(ctx context.Context) error {
	if c.warmed {
		return nil
	}
	if _, err := c.get(ctx, c.baseURL+"/?geo=US"); err != nil {
		return fmt.Errorf("warm up trends session: %w", err)
	}
	c.warmed = true
	return nil
}

func (c *Client) explore(ctx context.Context, topic string, timeframe string) (widget, error) {
	payload, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: topic, Geo: c.geo, Time: timeframe}},
	})
	if err != nil {
		return widget{}, fmt.Errorf("encode explore request: %w", err)
	}
	params := c.params()
	params.Set("req", string(payload))

	body, err := c.get(ctx, c.baseURL+explorePath+"?"+params.Encode())
	if err != nil {
		return widget{}, fmt.Errorf("explore %q: %w", topic, err)
	}
	body, err = stripXSSI(body)
	if err != nil {
		return widget{}, fmt.Errorf("explore %q: %w", topic, err)
	}

	var resp exploreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return widget{}, fmt.Errorf("decode explore response: %w", err)
	}
	for _, w := range resp.Widgets {
		if w.ID == timeseriesID {
			return w, nil
		}
	}
	return widget{}, ErrNoData
}

func (c *Client) multiline(ctx context.Context, w widget) ([]schema.Point, error) {
	params := c.params()
	params.Set("req", string(w.Request))
	params.Set("token", w.Token)

	body, err := c.get(ctx, c.baseURL+multilinePath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	body, err = stripXSSI(body)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}

	var resp multilineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode timeline response: %w", err)
	}
	return decodeTimeline(resp.Default.TimelineData)
}

func decodeTimeline(entries []timelineEntry) ([]schema.Point, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	points := make([]schema.Point, 0, len(entries))
	for _, e := range entries {
		sec, err := strconv.ParseInt(e.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timeline time %q: %w", e.Time, err)
		}
		p := schema.Point{Time: time.Unix(sec, 0).UTC()}
		if len(e.Value) > 0 {
			p.Value = float64(e.Value[0])
		} else {
			p.Missing = true
		}
		if len(e.HasData) > 0 && !e.HasData[0] {
			p.Missing = true
		}
		points = append(points, p)
	}
	return points, nil
}

// stripXSSI removes the anti-XSSI guard that prefixes every Trends JSON
// body: ")]}'" on explore and ")]}'," on widget data.
func stripXSSI(body []byte) ([]byte, error) {
	text := strings.TrimSpace(string(body))
	if rest, ok := strings.CutPrefix(text, ")]}'"); ok {
		text = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	}
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return nil, errors.New("response carries no JSON payload")
	}
	return []byte(text), nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("hl", c.language)
	params.Set("tz", strconv.Itoa(c.tzOffset))
	return params
}

// get performs a GET with the configured retry policy and returns the body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	op := func() error {
		b, err := c.do(ctx, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retries)), ctx)
	notify := func(err error, wait time.Duration) {
		contract.Log().Debug().Err(err).Dur("wait", wait).Msg("retrying trends request")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", c.language)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		statusErr := &StatusError{Code: resp.StatusCode, URL: req.URL.Path}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	contract.Log().Trace().Str("path", req.URL.Path).Dur("latency", latency).Msg("trends request")
	return body, nil
}
