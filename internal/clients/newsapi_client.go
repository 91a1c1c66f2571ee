package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/verity/internal/models"
	"golang.org/x/time/rate"
)

const (
	NEWS_API_BASE_URL        = "https://newsapi.org/v2"
	NEWS_API_TOP_HEADLINES   = "/top-headlines"
	NEWS_API_DEFAULT_COUNTRY = "us"
)

var (
	ErrMissingAPIKey = errors.New("[NewsAPIClient] API key is missing")
	ErrBadRequest    = errors.New("[NewsAPIClient] Bad request: check query parameters")
	ErrUnauthorized  = errors.New("[NewsAPIClient] Invalid API Key, check credentials")
	ErrForbidden     = errors.New("[NewsAPIClient] API key lacks required permissions")
	ErrMaxRetries    = errors.New("[NewsAPIClient] failed after max retries")
)

type NewsAPIClient struct {
	Client  *http.Client
	APIKey  string
	BaseURL string

	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewNewsAPIClient(apiKey, baseURL string) *NewsAPIClient {
	if baseURL == "" {
		baseURL = NEWS_API_BASE_URL
	}
	return &NewsAPIClient{
		Client:         &http.Client{Timeout: REQUEST_TIMEOUT},
		APIKey:         apiKey,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		limiter:        rate.NewLimiter(rate.Every(REQUEST_INTERVAL), 1),
		maxRetries:     MAX_RETRIES,
		initialBackoff: INITIAL_BACKOFF,
		maxBackoff:     MAX_BACKOFF,
	}
}

func (n *NewsAPIClient) topHeadlinesURL(q models.HeadlinesQuery) string {
	params := url.Values{}
	country := q.Country
	if country == "" {
		country = NEWS_API_DEFAULT_COUNTRY
	}
	params.Set("country", country)
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("apiKey", n.APIKey)

	return n.BaseURL + NEWS_API_TOP_HEADLINES + "?" + params.Encode()
}

// GetTopHeadlines fetches one page of top headlines. Rate limiting and server
// errors are retried with exponential backoff; other failures return at once.
func (n *NewsAPIClient) GetTopHeadlines(ctx context.Context, q models.HeadlinesQuery) (*models.NewsAPITopHeadlinesResponse, error) {
	if n.APIKey == "" {
		slog.Error("[NewsAPIClient] API key is missing")
		return nil, ErrMissingAPIKey
	}
	endpoint := n.topHeadlinesURL(q)

	var lastErr error
	backoff := n.initialBackoff

	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		slog.Debug("[NewsAPIClient] Fetching top headlines",
			slog.Int("attempt", attempt), slog.Int("page", q.Page))

		if err := n.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("[NewsAPIClient] rate limiter: %w", err)
		}

		response, retry, err := n.fetch(ctx, endpoint)
		if err == nil {
			slog.Info("[NewsAPIClient] Successfully fetched headlines",
				slog.Int("page", q.Page), slog.Int("articles", len(response.Articles)))
			return response, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err

		if attempt == n.maxRetries {
			break
		}

		slog.Warn("[NewsAPIClient] Request failed, retrying...",
			slog.Duration("backoff", backoff), slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("[NewsAPIClient] canceled while backing off: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > n.maxBackoff {
			backoff = n.maxBackoff
		}
	}

	slog.Error("[NewsAPIClient] Failed after max retries", slog.String("error", lastErr.Error()))
	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

// fetch performs a single request. The bool reports whether the failure is
// worth retrying.
func (n *NewsAPIClient) fetch(ctx context.Context, endpoint string) (*models.NewsAPITopHeadlinesResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("[NewsAPIClient] failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")

	res, err := n.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("[NewsAPIClient] request canceled: %w", ctx.Err())
		}
		slog.Error("[NewsAPIClient] Request failed", slog.String("error", err.Error()))
		return nil, true, fmt.Errorf("[NewsAPIClient] request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		slog.Error("[NewsAPIClient] Failed to read response body", slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("[NewsAPIClient] failed to read response body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusOK:
		var response models.NewsAPITopHeadlinesResponse
		if err := json.Unmarshal(body, &response); err != nil {
			slog.Error("[NewsAPIClient] Failed to parse JSON response", slog.String("error", err.Error()))
			return nil, false, fmt.Errorf("[NewsAPIClient] failed to parse response: %w", err)
		}
		if response.Status != "ok" {
			return nil, false, fmt.Errorf("[NewsAPIClient] News API error: %s", messageOr(response.Message, "Unknown error"))
		}
		return &response, false, nil
	case res.StatusCode == http.StatusBadRequest:
		slog.Warn("[NewsAPIClient] Bad request: check query parameters")
		return nil, false, withAPIMessage(ErrBadRequest, body)
	case res.StatusCode == http.StatusUnauthorized:
		slog.Error("[NewsAPIClient] Invalid API Key, check credentials")
		return nil, false, withAPIMessage(ErrUnauthorized, body)
	case res.StatusCode == http.StatusForbidden:
		slog.Error("[NewsAPIClient] Access forbidden, check API key permissions")
		return nil, false, withAPIMessage(ErrForbidden, body)
	case res.StatusCode == http.StatusTooManyRequests:
		slog.Warn("[NewsAPIClient] Rate limit exceeded")
		return nil, true, fmt.Errorf("[NewsAPIClient] rate limited (status %d)", res.StatusCode)
	case res.StatusCode >= http.StatusInternalServerError:
		slog.Warn("[NewsAPIClient] Server Error", slog.Int("statusCode", res.StatusCode))
		return nil, true, fmt.Errorf("[NewsAPIClient] server error (status %d)", res.StatusCode)
	default:
		slog.Warn("[NewsAPIClient] Unexpected Response", slog.Int("statusCode", res.StatusCode))
		return nil, false, fmt.Errorf("[NewsAPIClient] unexpected status code %d", res.StatusCode)
	}
}

// withAPIMessage attaches the message from a NewsAPI error body, if there is one.
func withAPIMessage(err error, body []byte) error {
	var apiErr models.NewsAPITopHeadlinesResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: %s", err, apiErr.Message)
	}
	return err
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
