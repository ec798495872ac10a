package forum

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"fal-scraper/models"
)

// episodePattern matches the human-readable link text of an episode
// discussion thread on the board index.
var episodePattern = regexp.MustCompile(`(?i)Episode (\d+) Discussion`)

// threadRef is one board-index row that matched the episode thread pattern.
type threadRef struct {
	episode    int
	href       string
	replyCount int
}

// parseBoardIndex extracts episode discussion threads from a board-index
// page. Rows that do not carry a matching discussion link are counted as
// skipped, never treated as errors.
func parseBoardIndex(r io.Reader) (refs []threadRef, skipped int, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, 0, fmt.Errorf("board index: %w", err)
	}

	// Cells in document order; the declared reply count lives in the cell
	// immediately following the thread link cell.
	var cells []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" {
			cells = append(cells, n)
		}
	})

	for i, td := range cells {
		if !hasClass(td, "forum_boardrow1") {
			continue
		}
		if attrVal(td, "align") == "right" {
			continue
		}

		anchor, episode := findEpisodeAnchor(td)
		if anchor == nil {
			skipped++
			continue
		}
		href := attrVal(anchor, "href")
		if href == "" {
			skipped++
			continue
		}

		replyCount := 0
		if i+1 < len(cells) {
			if n, convErr := strconv.Atoi(strings.TrimSpace(nodeText(cells[i+1]))); convErr == nil {
				replyCount = n
			}
		}

		refs = append(refs, threadRef{episode: episode, href: href, replyCount: replyCount})
	}
	return refs, skipped, nil
}

// findEpisodeAnchor returns the first anchor under n whose text matches the
// episode discussion pattern, along with the parsed episode number.
func findEpisodeAnchor(n *html.Node) (*html.Node, int) {
	var found *html.Node
	episode := 0
	walk(n, func(c *html.Node) {
		if found != nil || c.Type != html.ElementNode || c.Data != "a" {
			return
		}
		m := episodePattern.FindStringSubmatch(nodeText(c))
		if m == nil {
			return
		}
		if ep, err := strconv.Atoi(m[1]); err == nil {
			found, episode = c, ep
		}
	})
	return found, episode
}

// parseLastPost extracts the most recent post from the "jump to last post"
// view. Absent markup yields (nil, nil): the structured feed already has
// everything. Malformed markup is an error so the caller can retry.
func parseLastPost(r io.Reader) (*models.ForumPost, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("last post: %w", err)
	}

	var divs []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			divs = append(divs, n)
		}
	})

	for i, div := range divs {
		if !hasClass(div, "forum-topic-message") || !hasClass(div, "message") || !hasClass(div, "individual") {
			continue
		}

		author := attrVal(div, "data-user")
		if author == "" {
			return nil, errors.New("last post: missing data-user attribute")
		}

		for _, next := range divs[i+1:] {
			if !hasClass(next, "date") {
				continue
			}
			unix, convErr := strconv.ParseInt(strings.TrimSpace(attrVal(next, "data-time")), 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("last post: bad data-time: %w", convErr)
			}
			return &models.ForumPost{Author: author, Timestamp: time.Unix(unix, 0).UTC()}, nil
		}
		return nil, errors.New("last post: no date node after message")
	}

	return nil, nil
}

// walk visits every node under n in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// attrVal returns the value of the named attribute, or "".
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node's class attribute contains the class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates all text content under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
