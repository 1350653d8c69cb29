package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedPoller discovers new submissions through the community's public Atom
// feed. Read access needs no credentials, so polling stays decoupled from
// the authenticated client used for posting.
type FeedPoller struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFeedPoller(httpClient *http.Client, userAgent string) *FeedPoller {
	return &FeedPoller{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

// Run fetches and parses the community's new-post feed.
func (p *FeedPoller) Run(ctx context.Context, community string) ([]Post, error) {
	feedURL := fmt.Sprintf("https://www.reddit.com/r/%s/new/.rss", community)

	data, err := p.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community feed: %w", err)
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse community feed: %w", err)
	}

	posts := make([]Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		posts = append(posts, p.normalizeItem(item))
	}

	return posts, nil
}

func (p *FeedPoller) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (p *FeedPoller) normalizeItem(item *gofeed.Item) Post {
	post := Post{
		ID:        item.GUID,
		Title:     item.Title,
		Permalink: item.Link,
	}

	if item.PublishedParsed != nil {
		post.PublishedAt = *item.PublishedParsed
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		post.Author = strings.TrimPrefix(item.Authors[0].Name, "/u/")
	}

	body, outbound, links := ExtractEntry(item.Content)
	post.BodyText = body
	post.URL = outbound
	post.Links = links

	return post
}

// ExtractEntry pulls the self-text, the outbound link and the embedded
// links out of a feed entry's HTML payload. The entry wraps the self-text
// in a div.md block and appends "[link]" / "[comments]" footer anchors;
// only the footer "[link]" anchor identifies the submitted URL.
func ExtractEntry(entryHTML string) (bodyText string, outboundURL string, links []string) {
	if entryHTML == "" {
		return "", "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(entryHTML))
	if err != nil {
		return "", "", nil
	}

	body := doc.Find("div.md")
	bodyText = strings.TrimSpace(body.Text())

	body.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != "[link]" {
			return true
		}
		if href, ok := sel.Attr("href"); ok {
			outboundURL = href
		}
		return false
	})

	return bodyText, outboundURL, links
}
