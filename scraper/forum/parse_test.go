package forum

import (
	"strings"
	"testing"
	"time"
)

const sampleBoardIndex = `<html><body><table>
<tr>
	<td class="forum_boardrow1"><a href="/forum/?topicid=111">Sample Title Episode 1 Discussion</a></td>
	<td class="forum_boardrow1" align="right">15</td>
</tr>
<tr>
	<td class="forum_boardrow1"><a href="/forum/?topicid=222">Sample Title Episode 2 Discussion</a></td>
	<td class="forum_boardrow1" align="right">7</td>
</tr>
<tr>
	<td class="forum_boardrow1"><a href="/forum/?topicid=333">Poll: Which character do you like?</a></td>
	<td class="forum_boardrow1" align="right">42</td>
</tr>
</table></body></html>`

func TestParseBoardIndex(t *testing.T) {
	refs, skipped, err := parseBoardIndex(strings.NewReader(sampleBoardIndex))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("refs: got %d, want 2", len(refs))
	}
	if skipped != 1 {
		t.Errorf("skipped: got %d, want 1 (the poll row)", skipped)
	}

	if refs[0].episode != 1 || refs[0].href != "/forum/?topicid=111" || refs[0].replyCount != 15 {
		t.Errorf("first ref: got %+v", refs[0])
	}
	if refs[1].episode != 2 || refs[1].replyCount != 7 {
		t.Errorf("second ref: got %+v", refs[1])
	}
}

func TestParseBoardIndexEmptyPage(t *testing.T) {
	refs, skipped, err := parseBoardIndex(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 0 || skipped != 0 {
		t.Errorf("got %d refs, %d skipped; want none", len(refs), skipped)
	}
}

func TestParseBoardIndexBadReplyCount(t *testing.T) {
	page := `<table><tr>
		<td class="forum_boardrow1"><a href="/forum/?topicid=1">Episode 3 Discussion</a></td>
		<td class="forum_boardrow1" align="right">n/a</td>
	</tr></table>`

	refs, _, err := parseBoardIndex(strings.NewReader(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs: got %d, want 1", len(refs))
	}
	if refs[0].replyCount != 0 {
		t.Errorf("reply count should default to 0 on unparseable text, got %d", refs[0].replyCount)
	}
}

const sampleLastPost = `<html><body>
<div class="forum-topic-message message individual" data-user="alice">
	<div class="info">
		<div class="date" data-time="1728000000">Oct 4, 2024 12:00 AM</div>
	</div>
	<div class="body">great episode</div>
</div>
</body></html>`

func TestParseLastPost(t *testing.T) {
	post, err := parseLastPost(strings.NewReader(sampleLastPost))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post == nil {
		t.Fatal("expected a post")
	}

	if post.Author != "alice" {
		t.Errorf("author: got %q, want alice", post.Author)
	}
	want := time.Unix(1728000000, 0).UTC()
	if !post.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", post.Timestamp, want)
	}
}

func TestParseLastPostAbsentMarkup(t *testing.T) {
	post, err := parseLastPost(strings.NewReader("<html><body><p>Forum unavailable</p></body></html>"))
	if err != nil {
		t.Fatalf("absent markup should not be an error: %v", err)
	}
	if post != nil {
		t.Errorf("expected nil post, got %+v", post)
	}
}

func TestParseLastPostMalformed(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{
			"missing data-user",
			`<div class="forum-topic-message message individual"><div class="date" data-time="1728000000"></div></div>`,
		},
		{
			"bad data-time",
			`<div class="forum-topic-message message individual" data-user="alice"><div class="date" data-time="soon"></div></div>`,
		},
		{
			"no date node",
			`<div class="forum-topic-message message individual" data-user="alice"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseLastPost(strings.NewReader(tt.page)); err == nil {
				t.Error("expected error for malformed markup")
			}
		})
	}
}
