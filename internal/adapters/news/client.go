package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

const (
	DefaultBaseURL  = "https://newsapi.org/v2"
	DefaultPageSize = 20
)

// ErrMissingAPIKey is returned by Search when the client has no key.
var ErrMissingAPIKey = errors.New("news api key not configured")

type Config struct {
	APIKey     string
	BaseURL    string
	PageSize   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements domain.ArticleSource against NewsAPI's /everything endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: httpClient,
	}
}

type everythingResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code,omitempty"`
	Message      string       `json:"message,omitempty"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

func (a apiArticle) toDomain() domain.Article {
	out := domain.Article{
		Title:       strings.TrimSpace(a.Title),
		Description: strings.TrimSpace(a.Description),
		URL:         strings.TrimSpace(a.URL),
		Source:      a.Source.Name,
		ImageURL:    a.URLToImage,
	}
	if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		out.PublishedAt = t
	}
	return out
}

// Search returns the newest English articles matching query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprint(c.pageSize))
	params.Set("apiKey", c.apiKey)

	endpoint := c.baseURL + "/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}

	log := observability.LoggerFromContext(ctx).With("query", query)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read news response: %w", err)
	}

	var parsed everythingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("news api returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if parsed.Status != "ok" {
		log.Warnw("news api error", "status", resp.StatusCode, "code", parsed.Code)
		msg := parsed.Message
		if msg == "" {
			msg = "failed to fetch articles"
		}
		return nil, fmt.Errorf("news api (%d): %s", resp.StatusCode, msg)
	}

	articles := make([]domain.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, a.toDomain())
	}

	log.Debugw("news fetched", "count", len(articles), "elapsed_ms", time.Since(start).Milliseconds())
	return articles, nil
}
