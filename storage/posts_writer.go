package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"fal-scraper/models"
)

// PostsWriter renders the forum participation breakdown: a per-episode
// unique-poster matrix followed by the per-thread poster details.
type PostsWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewPostsWriter creates (or truncates) the posts report at the given path.
func NewPostsWriter(path string) (*PostsWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("posts: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("posts: create file %q: %w", path, err)
	}
	return &PostsWriter{file: f, writer: csv.NewWriter(f)}, nil
}

// WriteBreakdown writes the full posts report. The matrix counts unique
// posters over a thread's whole lifetime; the counting period only scopes
// the Posts column of the main report.
func (p *PostsWriter) WriteBreakdown(ids []int, threads map[int][]*models.ForumThread, titles map[int]string) error {
	if err := p.writeMatrix(ids, threads, titles); err != nil {
		return err
	}
	if err := p.writeDetails(ids, threads, titles); err != nil {
		return err
	}
	p.writer.Flush()
	return p.writer.Error()
}

// Close flushes and closes the underlying file.
func (p *PostsWriter) Close() error {
	p.writer.Flush()
	return p.file.Close()
}

func (p *PostsWriter) writeMatrix(ids []int, threads map[int][]*models.ForumThread, titles map[int]string) error {
	if err := p.writer.Write([]string{"Total number of unique posters in episode discussion threads"}); err != nil {
		return fmt.Errorf("posts: write heading: %w", err)
	}

	episodes := allEpisodes(threads)
	header := []string{"Title"}
	for _, ep := range episodes {
		header = append(header, fmt.Sprintf("EP%d", ep))
	}
	if err := p.writer.Write(header); err != nil {
		return fmt.Errorf("posts: write header: %w", err)
	}

	for _, id := range ids {
		byEpisode := make(map[int]int)
		for _, t := range threads[id] {
			byEpisode[t.Episode] = len(uniqueAuthors(t.Posts))
		}

		record := []string{titleFor(titles, id)}
		for _, ep := range episodes {
			record = append(record, strconv.Itoa(byEpisode[ep]))
		}
		if err := p.writer.Write(record); err != nil {
			return fmt.Errorf("posts: write matrix row: %w", err)
		}
	}
	return nil
}

func (p *PostsWriter) writeDetails(ids []int, threads map[int][]*models.ForumThread, titles map[int]string) error {
	if err := p.writer.Write(nil); err != nil {
		return err
	}
	if err := p.writer.Write([]string{"Unique poster breakdown per thread (name, number of posts, date of first post)"}); err != nil {
		return err
	}

	for _, id := range ids {
		for _, t := range threads[id] {
			if err := p.writer.Write(nil); err != nil {
				return err
			}
			if err := p.writer.Write([]string{titleFor(titles, id), fmt.Sprintf("EP%d", t.Episode), t.URL}); err != nil {
				return err
			}
			for _, ps := range posterStats(t.Posts) {
				record := []string{ps.author, strconv.Itoa(ps.count), ps.firstPost.Format("2006-01-02 15:04")}
				if err := p.writer.Write(record); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type posterStat struct {
	author    string
	count     int
	firstPost time.Time
}

// posterStats tallies per-author post counts and first-post times for one
// thread, ordered by count descending with feed order breaking ties.
func posterStats(posts []models.ForumPost) []posterStat {
	byAuthor := make(map[string]*posterStat, len(posts))
	var order []string

	for _, p := range posts {
		ps, ok := byAuthor[p.Author]
		if !ok {
			ps = &posterStat{author: p.Author, firstPost: p.Timestamp}
			byAuthor[p.Author] = ps
			order = append(order, p.Author)
		}
		ps.count++
		if p.Timestamp.Before(ps.firstPost) {
			ps.firstPost = p.Timestamp
		}
	}

	stats := make([]posterStat, 0, len(order))
	for _, a := range order {
		stats = append(stats, *byAuthor[a])
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].count > stats[j].count })
	return stats
}

func allEpisodes(threads map[int][]*models.ForumThread) []int {
	seen := make(map[int]struct{})
	for _, ts := range threads {
		for _, t := range ts {
			seen[t.Episode] = struct{}{}
		}
	}
	episodes := make([]int, 0, len(seen))
	for ep := range seen {
		episodes = append(episodes, ep)
	}
	sort.Ints(episodes)
	return episodes
}

func uniqueAuthors(posts []models.ForumPost) map[string]struct{} {
	set := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		set[p.Author] = struct{}{}
	}
	return set
}

func titleFor(titles map[int]string, id int) string {
	if t, ok := titles[id]; ok && t != "" {
		return t
	}
	return fmt.Sprintf("Unknown (ID: %d)", id)
}
