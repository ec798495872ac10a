package forum

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"fal-scraper/config"
	"fal-scraper/models"
	"fal-scraper/scraper/mal"
	"fal-scraper/utils"
)

// DefaultBoardBaseURL is the root of the human-facing forum pages.
const DefaultBoardBaseURL = "https://myanimelist.net"

// Scraper collects per-episode discussion participation for tracked titles.
// Thread discovery and the last-post probe scrape HTML pages; the post feed
// itself comes through the authenticated API client.
type Scraper struct {
	boardBaseURL string
	http         *http.Client
	api          *mal.Client
	retry        *utils.RetryConfig
	logger       *utils.Logger
	maxConc      int
	visited      *utils.StringSet
}

// New creates a ready-to-use forum Scraper.
func New(cfg *config.Config, api *mal.Client, logger *utils.Logger) *Scraper {
	return &Scraper{
		boardBaseURL: DefaultBoardBaseURL,
		http:         &http.Client{Timeout: 60 * time.Second},
		api:          api,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.RetryLimit,
			Delay:       time.Duration(cfg.SleepTimeSec) * time.Second,
			Logger:      logger,
		},
		logger:  logger,
		maxConc: cfg.MaxConcurrency,
		visited: utils.NewStringSet(),
	}
}

// Aggregate holds per-title thread data plus the derived participation
// counts for the active counting period.
type Aggregate struct {
	Threads    map[int][]*models.ForumThread
	PostCounts map[int]int
}

// FetchAll discovers all episode threads for the tracked titles, collects
// their posts, and buckets unique posters into the counting period. A
// failing title or thread degrades to zero posters; it never aborts the
// batch.
func (s *Scraper) FetchAll(ctx context.Context, ids []int, period models.CountingPeriod) *Aggregate {
	// Phase 1: board indexes, one per title.
	pool := utils.NewWorkerPool(s.maxConc)
	var mu sync.Mutex
	var all []*models.ForumThread

	for _, id := range ids {
		id := id
		pool.Submit(func() {
			threads, err := s.DiscoverThreads(ctx, id)
			if err != nil {
				s.logger.Error("[forum] thread discovery for ID %d failed: %v", id, err)
				return
			}
			mu.Lock()
			all = append(all, threads...)
			mu.Unlock()
		})
	}
	pool.Wait()
	s.logger.Debug("[forum] total threads found: %d", len(all))

	// Phase 2: posts per thread, feed and last-post probe.
	pool = utils.NewWorkerPool(s.maxConc)
	for _, t := range all {
		t := t
		if !s.visited.Add(t.URL) {
			s.logger.Debug("[forum] skipping duplicate thread: %s", t.URL)
			continue
		}
		pool.Submit(func() {
			s.populateThread(ctx, t)
		})
	}
	pool.Wait()

	// Phase 3: synchronous aggregation.
	agg := &Aggregate{
		Threads:    make(map[int][]*models.ForumThread, len(ids)),
		PostCounts: make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		agg.PostCounts[id] = 0
	}
	for _, t := range all {
		agg.Threads[t.AnimeID] = append(agg.Threads[t.AnimeID], t)
		agg.PostCounts[t.AnimeID] += len(UniquePosters(t.Posts, period))
	}
	for id := range agg.Threads {
		threads := agg.Threads[id]
		sort.Slice(threads, func(i, j int) bool { return threads[i].Episode < threads[j].Episode })
	}
	return agg
}

// DiscoverThreads scans a title's board-index page for episode discussion
// threads, recording each thread's URL and declared reply count.
func (s *Scraper) DiscoverThreads(ctx context.Context, animeID int) ([]*models.ForumThread, error) {
	indexURL := fmt.Sprintf("%s/forum/?animeid=%d&topic=episode", s.boardBaseURL, animeID)
	s.logger.Verbose("[forum] fetching board index: %s", indexURL)

	var threads []*models.ForumThread
	err := s.retry.Do(fmt.Sprintf("board-index-%d", animeID), func() error {
		resp, err := s.getPage(ctx, indexURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("board index %s: status %d", indexURL, resp.StatusCode)
		}

		refs, skipped, err := parseBoardIndex(resp.Body)
		if err != nil {
			return err
		}
		if skipped > 0 {
			s.logger.Debug("[forum] ID %d: %d board rows without a matching discussion link", animeID, skipped)
		}

		threads = threads[:0]
		for _, ref := range refs {
			threads = append(threads, &models.ForumThread{
				AnimeID:    animeID,
				Episode:    ref.episode,
				URL:        s.absoluteURL(ref.href),
				ReplyCount: ref.replyCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(threads) == 0 {
		s.logger.Verbose("[forum] no episode threads found for ID %d", animeID)
	}
	return threads, nil
}

// populateThread fills a thread's post list from both channels. Either
// channel failing degrades the thread instead of propagating.
func (s *Scraper) populateThread(ctx context.Context, t *models.ForumThread) {
	topicID := topicIDFromURL(t.URL)
	if topicID == "" {
		s.logger.Error("[forum] cannot extract topic ID from %s", t.URL)
		return
	}

	posts, err := s.api.TopicPosts(ctx, topicID)
	if err != nil {
		s.logger.Error("[forum] post feed for thread %s failed: %v", t.URL, err)
	}

	last, err := s.fetchLastPost(ctx, t.URL)
	if err != nil {
		s.logger.Error("[forum] last-post probe for %s failed: %v", t.URL, err)
	}

	t.Posts = mergeLastPost(posts, last)
	s.logger.Debug("[forum] thread EP%d of ID %d: %d posts collected", t.Episode, t.AnimeID, len(t.Posts))
}

// fetchLastPost scrapes the unauthenticated "jump to last post" view once
// per thread. The structured feed lags behind the live page, so this
// recovers the newest post. A non-200 response means the view is simply
// unavailable; only malformed markup is retried.
func (s *Scraper) fetchLastPost(ctx context.Context, threadURL string) (*models.ForumPost, error) {
	lastPostURL := threadURL + "&goto=lastpost"
	s.logger.Verbose("[forum] fetching last post: %s", lastPostURL)

	var post *models.ForumPost
	err := s.retry.Do("last-post-"+topicIDFromURL(threadURL), func() error {
		resp, err := s.getPage(ctx, lastPostURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			s.logger.Verbose("[forum] last post view unavailable for %s: status %d", lastPostURL, resp.StatusCode)
			post = nil
			return nil
		}

		post, err = parseLastPost(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Scraper) getPage(ctx context.Context, pageURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	return s.http.Do(req)
}

// absoluteURL resolves a board-index href against the forum root.
func (s *Scraper) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return s.boardBaseURL + href
}

// topicIDFromURL pulls the topic ID out of a thread URL.
func topicIDFromURL(threadURL string) string {
	if u, err := url.Parse(threadURL); err == nil {
		if id := u.Query().Get("topicid"); id != "" {
			return id
		}
	}
	if i := strings.LastIndex(threadURL, "="); i >= 0 {
		return threadURL[i+1:]
	}
	return ""
}

// mergeLastPost appends the scraped last post to the feed's post list
// unless the feed already captured the very same post. When the thread has
// not advanced since the feed snapshot, the probe legitimately returns a
// post the feed already has; matching on (author, timestamp) keeps it from
// being counted twice.
func mergeLastPost(posts []models.ForumPost, last *models.ForumPost) []models.ForumPost {
	if last == nil {
		return posts
	}
	for _, p := range posts {
		if p.Author == last.Author && p.Timestamp.Equal(last.Timestamp) {
			return posts
		}
	}
	return append(posts, *last)
}

// UniquePosters returns the distinct authors whose posts fall inside the
// counting period.
func UniquePosters(posts []models.ForumPost, period models.CountingPeriod) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range posts {
		if period.Contains(p.Timestamp) {
			set[p.Author] = struct{}{}
		}
	}
	return set
}
