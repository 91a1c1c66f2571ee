package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spacesedan/verity/internal/cache"
	"github.com/spacesedan/verity/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DEFAULT_PAGE_SIZE = 10
	MAX_ANALYZERS     = 8
	FETCH_TIMEOUT     = 90 * time.Second
)

type HeadlineFetcher interface {
	GetTopHeadlines(ctx context.Context, q models.HeadlinesQuery) (*models.NewsAPITopHeadlinesResponse, error)
}

type HeadlineAnalyzer interface {
	AnalyzeHeadline(headline string) models.BiasAssessment
}

type NewsServiceOptions struct {
	Country  string
	Category string
	PageSize int
	TTL      time.Duration
}

// NewsService fetches pages of top headlines and scores every title. Pages are
// memoized in the cache for the configured TTL.
type NewsService struct {
	fetcher  HeadlineFetcher
	analyzer HeadlineAnalyzer
	cache    cache.Cache
	opts     NewsServiceOptions
	group    singleflight.Group
}

func NewNewsService(fetcher HeadlineFetcher, analyzer HeadlineAnalyzer, c cache.Cache, opts NewsServiceOptions) *NewsService {
	if opts.PageSize <= 0 {
		opts.PageSize = DEFAULT_PAGE_SIZE
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.DEFAULT_TTL
	}
	return &NewsService{
		fetcher:  fetcher,
		analyzer: analyzer,
		cache:    c,
		opts:     opts,
	}
}

func (s *NewsService) PageSize() int {
	return s.opts.PageSize
}

// GetNewsData returns one page of analyzed headlines. Concurrent calls for the
// same uncached page share a single upstream request, which is not cancelled
// when one of the callers gives up.
func (s *NewsService) GetNewsData(ctx context.Context, page int) (*models.NewsPage, error) {
	page = max(page, 1)
	key := cache.PageKey(page, s.opts.PageSize)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	ch := s.group.DoChan(strconv.Itoa(page), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FETCH_TIMEOUT)
		defer cancel()

		result, err := s.buildPage(fetchCtx, page)
		if err != nil {
			return nil, err
		}
		s.toCache(fetchCtx, key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("[NewsService] gave up waiting for page %d: %w", page, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("[NewsService] Shared in-flight fetch", slog.Int("page", page))
		}
		return res.Val.(*models.NewsPage), nil
	}
}

func (s *NewsService) buildPage(ctx context.Context, page int) (*models.NewsPage, error) {
	slog.Debug("[NewsService] Fetching news", slog.Int("page", page))
	start := time.Now()

	res, err := s.fetcher.GetTopHeadlines(ctx, models.HeadlinesQuery{
		Country:  s.opts.Country,
		Category: s.opts.Category,
		Page:     page,
		PageSize: s.opts.PageSize,
	})
	if err != nil {
		slog.Error("[NewsService] Failed to fetch news data", slog.Int("page", page), slog.String("error", err.Error()))
		return nil, fmt.Errorf("[NewsService] failed to fetch news data: %w", err)
	}

	articles := make([]models.NewsAPIArticle, 0, len(res.Articles))
	for _, a := range res.Articles {
		if a.Title == "" {
			continue
		}
		articles = append(articles, a)
	}

	analyzed := make([]models.AnalyzedArticle, len(articles))
	var g errgroup.Group
	g.SetLimit(MAX_ANALYZERS)
	for i, a := range articles {
		g.Go(func() error {
			analyzed[i] = models.AnalyzedArticle{
				NewsAPIArticle: a,
				BiasAssessment: s.analyzer.AnalyzeHeadline(a.Title),
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("[NewsService] Analyzed headlines",
		slog.Int("page", page),
		slog.Int("articles", len(analyzed)),
		slog.Duration("duration", time.Since(start)))

	return &models.NewsPage{
		Articles:     analyzed,
		TotalResults: res.TotalResults,
		HasMore:      res.TotalResults > page*s.opts.PageSize,
	}, nil
}

func (s *NewsService) fromCache(ctx context.Context, key string) (*models.NewsPage, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[NewsService] Cache read failed, bypassing", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result models.NewsPage
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("[NewsService] Dropping undecodable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	return &result, true
}

func (s *NewsService) toCache(ctx context.Context, key string, result *models.NewsPage) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		slog.Warn("[NewsService] Failed to encode page for cache", slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.TTL); err != nil {
		slog.Warn("[NewsService] Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
