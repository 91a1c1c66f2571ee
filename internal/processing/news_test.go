package processing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/verity/internal/cache"
	"github.com/spacesedan/verity/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls     atomic.Int32
	sawCancel atomic.Bool
	queries   chan models.HeadlinesQuery
	release   chan struct{}
	res       *models.NewsAPITopHeadlinesResponse
	err       error
}

func (f *fakeFetcher) GetTopHeadlines(ctx context.Context, q models.HeadlinesQuery) (*models.NewsAPITopHeadlinesResponse, error) {
	f.calls.Add(1)
	if f.queries != nil {
		f.queries <- q
	}
	if f.release != nil {
		<-f.release
	}
	if ctx.Err() != nil {
		f.sawCancel.Store(true)
		return nil, ctx.Err()
	}
	return f.res, f.err
}

type upperAnalyzer struct{}

func (upperAnalyzer) AnalyzeHeadline(headline string) models.BiasAssessment {
	return models.BiasAssessment{
		BiasCategory:        strings.ToUpper(headline),
		FoundEmotionalWords: []string{},
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unavailable")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("unavailable")
}

func (brokenCache) Ping(context.Context) bool { return false }

func headlines(total int, titles ...string) *models.NewsAPITopHeadlinesResponse {
	res := &models.NewsAPITopHeadlinesResponse{Status: "ok", TotalResults: total}
	for _, t := range titles {
		res.Articles = append(res.Articles, models.NewsAPIArticle{Title: t, URL: "https://example.com/" + t})
	}
	return res
}

func newService(f *fakeFetcher, c cache.Cache) *NewsService {
	return NewNewsService(f, upperAnalyzer{}, c, NewsServiceOptions{Country: "us", PageSize: 10, TTL: time.Minute})
}

func TestGetNewsData_AnalyzesAndSkipsEmptyTitles(t *testing.T) {
	f := &fakeFetcher{res: headlines(25, "a", "", "b", "c")}
	s := newService(f, cache.NewMemoryCache(1<<20))

	page, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, page.Articles, 3)
	assert.Equal(t, "a", page.Articles[0].Title)
	assert.Equal(t, "A", page.Articles[0].BiasCategory)
	assert.Equal(t, "b", page.Articles[1].Title)
	assert.Equal(t, "C", page.Articles[2].BiasCategory)
	assert.Equal(t, 25, page.TotalResults)
	assert.True(t, page.HasMore)
}

func TestGetNewsData_HasMore(t *testing.T) {
	tests := []struct {
		total int
		page  int
		want  bool
	}{
		{total: 25, page: 2, want: true},
		{total: 25, page: 3, want: false},
		{total: 20, page: 2, want: false},
		{total: 0, page: 1, want: false},
	}

	for _, tt := range tests {
		f := &fakeFetcher{res: headlines(tt.total, "a")}
		s := newService(f, nil)

		page, err := s.GetNewsData(context.Background(), tt.page)
		require.NoError(t, err)
		assert.Equal(t, tt.want, page.HasMore, "total=%d page=%d", tt.total, tt.page)
	}
}

func TestGetNewsData_ClampsPage(t *testing.T) {
	f := &fakeFetcher{res: headlines(1, "a"), queries: make(chan models.HeadlinesQuery, 1)}
	s := newService(f, nil)

	_, err := s.GetNewsData(context.Background(), -4)
	require.NoError(t, err)

	q := <-f.queries
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, "us", q.Country)
}

func TestGetNewsData_ServesFromCache(t *testing.T) {
	f := &fakeFetcher{res: headlines(1, "a")}
	c := cache.NewMemoryCache(1 << 20)
	s := newService(f, c)

	first, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)
	second, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, first, second)

	raw, ok, err := c.Get(context.Background(), cache.PageKey(1, 10))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"hasMore":false`)

	// other pages are cached separately
	_, err = s.GetNewsData(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGetNewsData_IgnoresCorruptCacheEntry(t *testing.T) {
	f := &fakeFetcher{res: headlines(1, "a")}
	c := cache.NewMemoryCache(1 << 20)
	require.NoError(t, c.Set(context.Background(), cache.PageKey(1, 10), []byte("{"), time.Minute))
	s := newService(f, c)

	page, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, page.Articles, 1)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetNewsData_BypassesBrokenCache(t *testing.T) {
	f := &fakeFetcher{res: headlines(1, "a")}
	s := newService(f, brokenCache{})

	page, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, page.Articles, 1)
}

func TestGetNewsData_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	c := cache.NewMemoryCache(1 << 20)
	s := newService(f, c)

	_, err := s.GetNewsData(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch news data: boom")

	_, ok, _ := c.Get(context.Background(), cache.PageKey(1, 10))
	assert.False(t, ok)
}

func TestGetNewsData_CollapsesConcurrentMisses(t *testing.T) {
	f := &fakeFetcher{
		res:     headlines(1, "a"),
		queries: make(chan models.HeadlinesQuery, 8),
		release: make(chan struct{}),
	}
	s := newService(f, cache.NewMemoryCache(1<<20))

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.NewsPage, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := s.GetNewsData(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = page
		}()
	}

	<-f.queries
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Len(t, r.Articles, 1)
	}
}

func TestGetNewsData_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &fakeFetcher{
		res:     headlines(1, "a"),
		queries: make(chan models.HeadlinesQuery, 2),
		release: make(chan struct{}),
	}
	s := newService(f, cache.NewMemoryCache(1<<20))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.GetNewsData(ctxA, 1)
		errA <- err
	}()
	<-f.queries

	type result struct {
		page *models.NewsPage
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		page, err := s.GetNewsData(context.Background(), 1)
		resB <- result{page, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(f.release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Len(t, r.page.Articles, 1)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}

	assert.Equal(t, int32(1), f.calls.Load())
	assert.False(t, f.sawCancel.Load())

	// the shared fetch still populated the cache
	_, ok, err := s.cache.Get(context.Background(), cache.PageKey(1, 10))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewsPage_JSONShape(t *testing.T) {
	f := &fakeFetcher{res: headlines(1, "a")}
	s := newService(f, nil)

	page, err := s.GetNewsData(context.Background(), 1)
	require.NoError(t, err)

	raw, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	articles := decoded["articles"].([]any)
	first := articles[0].(map[string]any)

	// the assessment is flattened into the article record
	assert.Equal(t, "a", first["title"])
	assert.Equal(t, "A", first["bias_category"])
	assert.Contains(t, first, "found_emotional_words")
	assert.Contains(t, decoded, "totalResults")
	assert.Contains(t, decoded, "hasMore")
}

func TestNewNewsService_Defaults(t *testing.T) {
	s := NewNewsService(&fakeFetcher{}, upperAnalyzer{}, nil, NewsServiceOptions{})
	assert.Equal(t, DEFAULT_PAGE_SIZE, s.PageSize())
	assert.Equal(t, cache.DEFAULT_TTL, s.opts.TTL)
}
