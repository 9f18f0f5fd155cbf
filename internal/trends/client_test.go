package trends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exploreBody = `)]}'
{"widgets":[{"id":"RELATED_TOPICS","token":"nope","request":{}},{"id":"TIMESERIES","token":"tok-123","request":{"time":"2007-01-01 2023-01-01","resolution":"MONTH"}}]}`

const multilineBody = `)]}',
{"default":{"timelineData":[
{"time":"1167609600","formattedTime":"Jan 2007","value":[3],"hasData":[true]},
{"time":"1170288000","formattedTime":"Feb 2007","value":[0],"hasData":[false]},
{"time":"1172707200","formattedTime":"Mar 2007","value":[7],"hasData":[true]}]}}`

// fakeTrends mimics the three endpoints the client calls.
type fakeTrends struct {
	t           *testing.T
	explore     string
	multiline   string
	failFirst   int32
	failStatus  int
	calls       atomic.Int32
	sawCookie   atomic.Bool
	lastReq     atomic.Value
	lastToken   atomic.Value
	lastWidgetQ atomic.Value
}

func (f *fakeTrends) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "NID", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(explorePath, func(w http.ResponseWriter, r *http.Request) {
		n := f.calls.Add(1)
		if n <= f.failFirst {
			w.WriteHeader(f.failStatus)
			return
		}
		if _, err := r.Cookie("NID"); err == nil {
			f.sawCookie.Store(true)
		}
		assert.Equal(f.t, "en-US", r.URL.Query().Get("hl"))
		assert.Equal(f.t, "360", r.URL.Query().Get("tz"))
		f.lastReq.Store(r.URL.Query().Get("req"))
		_, _ = w.Write([]byte(f.explore))
	})
	mux.HandleFunc(multilinePath, func(w http.ResponseWriter, r *http.Request) {
		f.lastToken.Store(r.URL.Query().Get("token"))
		f.lastWidgetQ.Store(r.URL.Query().Get("req"))
		_, _ = w.Write([]byte(f.multiline))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeTrends, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(f.handler())
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithBaseURL(server.URL),
		WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }),
	}, opts...)
	client, err := New(opts...)
	require.NoError(t, err)
	return client
}

func TestClientFetchSeries(t *testing.T) {
	f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody}
	client := newTestClient(t, f, WithGeo("US"))

	series, err := client.FetchSeries(context.Background(), "Groupon", "2007-01-01 2023-01-01")
	require.NoError(t, err)

	assert.Equal(t, "Groupon", series.Topic)
	require.Len(t, series.Points, 3)
	assert.Equal(t, time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC), series.Points[0].Time)
	assert.Equal(t, 3.0, series.Points[0].Value)
	assert.True(t, series.Points[1].Missing)
	assert.Equal(t, []float64{3, 7}, series.Values())

	assert.True(t, f.sawCookie.Load(), "warm-up cookie should be replayed")
	assert.Equal(t, "tok-123", f.lastToken.Load())
	assert.JSONEq(t, `{"time":"2007-01-01 2023-01-01","resolution":"MONTH"}`, f.lastWidgetQ.Load().(string))

	var req exploreRequest
	require.NoError(t, json.Unmarshal([]byte(f.lastReq.Load().(string)), &req))
	require.Len(t, req.ComparisonItem, 1)
	assert.Equal(t, "Groupon", req.ComparisonItem[0].Keyword)
	assert.Equal(t, "US", req.ComparisonItem[0].Geo)
	assert.Equal(t, "2007-01-01 2023-01-01", req.ComparisonItem[0].Time)
}

func TestClientNoData(t *testing.T) {
	tests := []struct {
		name      string
		explore   string
		multiline string
	}{
		{
			name:      "no timeseries widget",
			explore:   `)]}'{"widgets":[]}`,
			multiline: multilineBody,
		},
		{
			name:      "empty timeline",
			explore:   exploreBody,
			multiline: `)]}',{"default":{"timelineData":[]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTrends{t: t, explore: tt.explore, multiline: tt.multiline}
			client := newTestClient(t, f)

			_, err := client.InterestOverTime(context.Background(), "WeWork", "today 5-y")
			assert.ErrorIs(t, err, ErrNoData)

			series, err := client.FetchSeries(context.Background(), "WeWork", "today 5-y")
			require.NoError(t, err)
			assert.True(t, series.Empty())
			assert.Equal(t, "WeWork", series.Topic)
		})
	}
}

func TestClientRetries(t *testing.T) {
	t.Run("no retry by default", func(t *testing.T) {
		f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody, failFirst: 1, failStatus: http.StatusTooManyRequests}
		client := newTestClient(t, f)

		_, err := client.FetchSeries(context.Background(), "Uber", "today 5-y")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
		assert.Equal(t, int32(1), f.calls.Load())
	})

	t.Run("retries rate limits", func(t *testing.T) {
		f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody, failFirst: 2, failStatus: http.StatusTooManyRequests}
		client := newTestClient(t, f, WithRetries(3))

		series, err := client.FetchSeries(context.Background(), "Uber", "today 5-y")
		require.NoError(t, err)
		assert.Len(t, series.Points, 3)
		assert.Equal(t, int32(3), f.calls.Load())
	})

	t.Run("client errors are permanent", func(t *testing.T) {
		f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody, failFirst: 5, failStatus: http.StatusBadRequest}
		client := newTestClient(t, f, WithRetries(3))

		_, err := client.FetchSeries(context.Background(), "Uber", "today 5-y")
		require.Error(t, err)
		assert.Equal(t, int32(1), f.calls.Load())
	})

	t.Run("server errors exhaust retries", func(t *testing.T) {
		f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody, failFirst: 10, failStatus: http.StatusBadGateway}
		client := newTestClient(t, f, WithRetries(2))

		_, err := client.FetchSeries(context.Background(), "Uber", "today 5-y")
		require.Error(t, err)
		assert.Equal(t, int32(3), f.calls.Load())
	})
}

func TestClientContextCanceled(t *testing.T) {
	f := &fakeTrends{t: t, explore: exploreBody, multiline: multilineBody}
	client := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchSeries(ctx, "Airbnb", "today 5-y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientLeavesCallerHTTPClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Second}
	client, err := New(WithHTTPClient(shared), WithTimeout(5*time.Second))
	require.NoError(t, err)

	assert.Nil(t, shared.Jar)
	assert.Equal(t, time.Second, shared.Timeout)
	assert.NotSame(t, shared, client.httpClient)
	assert.NotNil(t, client.httpClient.Jar)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestClientEmptyTopic(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	_, err = client.InterestOverTime(context.Background(), "  ", "today 5-y")
	assert.Error(t, err)
}

func TestStripXSSI(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"explore guard", `)]}'{"a":1}`, `{"a":1}`, false},
		{"widget guard", ")]}',\n{\"a\":1}", `{"a":1}`, false},
		{"plain json", `{"a":1}`, `{"a":1}`, false},
		{"html", `<html></html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stripXSSI([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeTimeline(t *testing.T) {
	_, err := decodeTimeline([]timelineEntry{{Time: "yesterday", Value: []int{1}}})
	assert.Error(t, err)

	points, err := decodeTimeline([]timelineEntry{{Time: "0"}})
	require.NoError(t, err)
	assert.True(t, points[0].Missing)
}
