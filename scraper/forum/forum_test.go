package forum

import (
	"testing"
	"time"

	"fal-scraper/models"
)

func TestMergeLastPost(t *testing.T) {
	ts := time.Date(2024, time.October, 7, 12, 0, 0, 0, time.UTC)
	feed := []models.ForumPost{
		{Author: "alice", Timestamp: ts},
		{Author: "bob", Timestamp: ts.Add(time.Hour)},
	}

	merged := mergeLastPost(feed, nil)
	if len(merged) != 2 {
		t.Errorf("nil last post: got %d posts, want 2", len(merged))
	}

	// Same post the feed already captured.
	merged = mergeLastPost(feed, &models.ForumPost{Author: "bob", Timestamp: ts.Add(time.Hour)})
	if len(merged) != 2 {
		t.Errorf("duplicate last post: got %d posts, want 2", len(merged))
	}

	// Same author, newer timestamp: the thread moved on since the feed
	// snapshot, so the probe result is a genuinely new post.
	merged = mergeLastPost(feed, &models.ForumPost{Author: "bob", Timestamp: ts.Add(2 * time.Hour)})
	if len(merged) != 3 {
		t.Errorf("newer last post: got %d posts, want 3", len(merged))
	}
}

func TestUniquePostersDeduplicatesAuthors(t *testing.T) {
	start := time.Date(2024, time.October, 14, 0, 0, 0, 0, time.UTC)
	period := models.CountingPeriod{Number: 4, Start: start, End: start.AddDate(0, 0, 14)}

	posts := []models.ForumPost{
		{Author: "alice", Timestamp: start.Add(time.Hour)},
		{Author: "alice", Timestamp: start.Add(2 * time.Hour)},
		{Author: "bob", Timestamp: start.Add(3 * time.Hour)},
		{Author: "carol", Timestamp: start.AddDate(0, 0, -1)}, // before the window
	}

	got := UniquePosters(posts, period)
	if len(got) != 2 {
		t.Fatalf("unique posters: got %d, want 2", len(got))
	}
	if _, ok := got["carol"]; ok {
		t.Error("poster outside the window must not be counted")
	}
}

func TestUniquePostersPeriodTwoIncludesPreseason(t *testing.T) {
	start := time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)
	p2 := models.CountingPeriod{Number: 2, Start: start, End: start.AddDate(0, 0, 14)}

	posts := []models.ForumPost{
		{Author: "early-bird", Timestamp: start.AddDate(0, 0, -30)},
	}

	if got := UniquePosters(posts, p2); len(got) != 1 {
		t.Errorf("period 2 must count pre-season posts, got %d posters", len(got))
	}
}

func TestTopicIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://myanimelist.net/forum/?topicid=2170880", "2170880"},
		{"/forum/?topicid=42", "42"},
		{"https://myanimelist.net/forum/?animeid=1&topicid=7", "7"},
		{"no-query-here", ""},
	}

	for _, tt := range tests {
		if got := topicIDFromURL(tt.in); got != tt.want {
			t.Errorf("topicIDFromURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	s := &Scraper{boardBaseURL: "https://myanimelist.net"}

	if got := s.absoluteURL("/forum/?topicid=1"); got != "https://myanimelist.net/forum/?topicid=1" {
		t.Errorf("relative href: got %q", got)
	}
	abs := "https://myanimelist.net/forum/?topicid=2"
	if got := s.absoluteURL(abs); got != abs {
		t.Errorf("absolute href must pass through, got %q", got)
	}
}
