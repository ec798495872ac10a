package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fal-scraper/config"
	"fal-scraper/models"
	"fal-scraper/utils"
)

const (
	// DefaultBaseURL is the MyAnimeList v2 API root.
	DefaultBaseURL = "https://api.myanimelist.net/v2"

	animeFields = "mean,num_favorites,statistics,status"
	pageSize    = 100
)

// errParse marks a response body that could not be decoded into the
// expected record shape. Row-local; never aborts sibling fetches.
var errParse = errors.New("parse error")

// statusError is an HTTP response with an unexpected status code.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.code, e.url)
}

// permanent wraps an error so the retry loop gives up immediately.
func permanent(err error) error {
	return fmt.Errorf("%w: %w", utils.ErrPermanent, err)
}

// Client talks to the metadata API: per-title statistics and the paginated
// forum topic feed. Requests carry the static client credential and are
// paced through a shared rate limiter.
type Client struct {
	baseURL  string
	http     *http.Client
	clientID string
	limiter  *rate.Limiter
	retry    *utils.RetryConfig
	logger   *utils.Logger
	maxConc  int
}

// New creates a ready-to-use API client from configuration.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	limit := rate.Inf
	if cfg.RateLimitMs > 0 {
		limit = rate.Every(time.Duration(cfg.RateLimitMs) * time.Millisecond)
	}

	return &Client{
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: 60 * time.Second},
		clientID: cfg.ClientID,
		limiter:  rate.NewLimiter(limit, 1),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.RetryLimit,
			Delay:       time.Duration(cfg.SleepTimeSec) * time.Second,
			Logger:      logger,
		},
		logger:  logger,
		maxConc: cfg.MaxConcurrency,
	}
}

// AnimeStats fetches the raw statistics snapshot for one title, with
// bounded retries. Not-found and gateway-timeout responses fail without
// further attempts.
func (c *Client) AnimeStats(ctx context.Context, id int) (*models.AnimeStats, error) {
	url := fmt.Sprintf("%s/anime/%d?fields=%s", c.baseURL, id, animeFields)

	var resp animeResponse
	err := c.retry.Do(fmt.Sprintf("anime-stats-%d", id), func() error {
		resp = animeResponse{}
		return c.getJSON(ctx, url, &resp)
	})
	if err != nil {
		return nil, err
	}

	return &models.AnimeStats{
		ID:          resp.ID,
		Title:       resp.Title,
		Mean:        resp.Mean,
		Favorites:   resp.NumFavorites,
		Status:      models.AiringStatus(resp.Status),
		Watching:    int(resp.Statistics.Status.Watching),
		Completed:   int(resp.Statistics.Status.Completed),
		Dropped:     int(resp.Statistics.Status.Dropped),
		PlanToWatch: int(resp.Statistics.Status.PlanToWatch),
		RetrievedAt: time.Now(),
	}, nil
}

// TopicPosts pages through the structured post feed of one forum topic in
// fixed-size batches, following the "next page" cursor until exhausted.
// On a page failure the posts collected so far are returned alongside the
// error so the thread can degrade instead of vanishing.
func (c *Client) TopicPosts(ctx context.Context, topicID string) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	offset := 0

	for {
		url := fmt.Sprintf("%s/forum/topic/%s?offset=%d&limit=%d", c.baseURL, topicID, offset, pageSize)
		c.logger.Verbose("[mal] fetching thread page: %s", url)

		var page topicResponse
		err := c.retry.Do(fmt.Sprintf("topic-%s-offset-%d", topicID, offset), func() error {
			page = topicResponse{}
			return c.getJSON(ctx, url, &page)
		})
		if err != nil {
			return posts, err
		}

		if len(page.Data.Posts) == 0 {
			c.logger.Warn("[mal] no posts in response for topic %s at offset %d", topicID, offset)
		}

		for _, p := range page.Data.Posts {
			if p.CreatedBy.Name == "" || p.CreatedAt == "" {
				c.logger.Warn("[mal] incomplete post data in topic %s", topicID)
				continue
			}
			ts, err := time.Parse(time.RFC3339, p.CreatedAt)
			if err != nil {
				c.logger.Warn("[mal] bad post timestamp %q in topic %s", p.CreatedAt, topicID)
				continue
			}
			posts = append(posts, models.ForumPost{Author: p.CreatedBy.Name, Timestamp: ts})
		}

		if page.Paging.Next == "" {
			break
		}
		offset += pageSize
	}

	return posts, nil
}

// getJSON issues one authenticated GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return permanent(err)
	}
	if c.clientID != "" {
		req.Header.Set("X-MAL-CLIENT-ID", c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGatewayTimeout:
		return permanent(&statusError{resp.StatusCode, url})
	default:
		return &statusError{resp.StatusCode, url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return permanent(fmt.Errorf("%w: decode %s: %v", errParse, url, err))
	}
	return nil
}

// failureReason maps a terminal fetch error onto the failure taxonomy.
func failureReason(err error) string {
	var se *statusError
	switch {
	case errors.As(err, &se) && se.code == http.StatusNotFound:
		return models.ReasonNotFound
	case errors.As(err, &se):
		return models.ReasonExhausted
	case errors.Is(err, errParse):
		return models.ReasonParse
	default:
		return models.ReasonNetwork
	}
}

// flexInt decodes statistics counters that the API serves either as JSON
// numbers or as quoted strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("numeric field %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

type animeResponse struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Mean         *float64 `json:"mean"`
	NumFavorites int      `json:"num_favorites"`
	Status       string   `json:"status"`
	Statistics   struct {
		Status struct {
			Watching    flexInt `json:"watching"`
			Completed   flexInt `json:"completed"`
			OnHold      flexInt `json:"on_hold"`
			Dropped     flexInt `json:"dropped"`
			PlanToWatch flexInt `json:"plan_to_watch"`
		} `json:"status"`
	} `json:"statistics"`
}

type topicResponse struct {
	Data struct {
		Title string `json:"title"`
		Posts []struct {
			ID        int    `json:"id"`
			Number    int    `json:"number"`
			CreatedAt string `json:"created_at"`
			CreatedBy struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			} `json:"created_by"`
		} `json:"posts"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}
