package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/verity/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const headlinesBody = `{
	"status": "ok",
	"totalResults": 2,
	"articles": [
		{
			"source": {"id": null, "name": "Example News"},
			"author": "Jane Doe",
			"title": "Shocking disaster strikes - Example News",
			"description": "desc",
			"url": "https://example.com/a",
			"urlToImage": null,
			"publishedAt": "2025-03-01T10:00:00Z",
			"content": null
		},
		{"source": {"id": "wire", "name": "Wire"}, "title": "Council meets"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *NewsAPIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewNewsAPIClient("test-key", srv.URL)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	c.initialBackoff = time.Millisecond
	c.maxBackoff = 2 * time.Millisecond
	return c
}

func TestGetTopHeadlines_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top-headlines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "us", q.Get("country"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.Equal(t, "test-key", q.Get("apiKey"))
		assert.Equal(t, "technology", q.Get("category"))
		assert.Equal(t, USER_AGENT, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(headlinesBody))
	})

	res, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{
		Country: "us", Category: "technology", Page: 2, PageSize: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalResults)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, "Shocking disaster strikes - Example News", res.Articles[0].Title)
	assert.Equal(t, "Example News", res.Articles[0].Source.Name)
	assert.Empty(t, res.Articles[0].Source.ID)
	assert.Equal(t, "2025-03-01T10:00:00Z", res.Articles[0].PublishedAt)
}

func TestGetTopHeadlines_OmitsEmptyCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["category"]
		assert.False(t, ok)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	})

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{PageSize: 10})
	require.NoError(t, err)
}

func TestGetTopHeadlines_MissingKey(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c.APIKey = ""

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, calls.Load())
}

func TestGetTopHeadlines_StatusNotOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"parametersMissing","message":"Required parameters are missing."}`))
	})

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "News API error: Required parameters are missing.")
}

func TestGetTopHeadlines_TerminalStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
			})

			_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "Your API key is invalid.")
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestGetTopHeadlines_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(headlinesBody))
		}
	})

	res, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, res.Articles, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetTopHeadlines_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.maxRetries = 3

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetTopHeadlines_UnexpectedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 418")
}

func TestGetTopHeadlines_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":`))
	})

	_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
	assert.Error(t, err)
}

func TestGetTopHeadlines_CanceledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.initialBackoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetTopHeadlines(ctx, models.HeadlinesQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestGetTopHeadlines_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(headlinesBody))
	})
	c.limiter = rate.NewLimiter(rate.Every(30*time.Millisecond), 1)

	start := time.Now()
	for range 3 {
		_, err := c.GetTopHeadlines(context.Background(), models.HeadlinesQuery{Page: 1, PageSize: 10})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestGetTopHeadlines_LimiterRespectsContext(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetTopHeadlines(ctx, models.HeadlinesQuery{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Zero(t, calls.Load())
}
