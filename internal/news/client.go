package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
)

const service = "news"

// MaxHeadlines caps every result regardless of feed length.
const MaxHeadlines = 7

type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Client reads the Yahoo Finance per-ticker RSS headline feed.
type Client struct {
	httpClient *http.Client
	feedURL    string
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.NewsTimeout()},
		feedURL:    cfg.News.FeedURL,
		logger:     log,
	}
}

// Headlines returns up to MaxHeadlines items in feed order.
func (c *Client) Headlines(ctx context.Context, symbol string) ([]Headline, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return nil, apierr.New(apierr.KindInvalid, service, "symbol is required")
	}

	params := url.Values{}
	params.Set("s", sym)
	params.Set("region", "US")
	params.Set("lang", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInvalid, service, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("fetch news feed", "symbol", sym, "error", err)
		return nil, apierr.FromTransport(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apierr.New(apierr.KindRateLimited, service, "feed rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(apierr.KindUpstream, service, fmt.Sprintf("feed returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.FromTransport(service, fmt.Errorf("read feed: %w", err))
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse feed: %w", err))
	}

	items := feed.Channel.Items
	if len(items) > MaxHeadlines {
		items = items[:MaxHeadlines]
	}

	headlines := make([]Headline, 0, len(items))
	for _, item := range items {
		h := Headline{
			Title:   strings.TrimSpace(item.Title),
			Link:    strings.TrimSpace(item.Link),
			Summary: stripHTML(item.Description),
		}
		if t, err := time.Parse(time.RFC1123Z, strings.TrimSpace(item.PubDate)); err == nil {
			h.Published = t
		} else if t, err := time.Parse(time.RFC1123, strings.TrimSpace(item.PubDate)); err == nil {
			h.Published = t
		}
		headlines = append(headlines, h)
	}

	c.logger.Info("headlines fetched", "symbol", sym, "feed_items", len(feed.Channel.Items), "returned", len(headlines))
	return headlines, nil
}

// stripHTML flattens an HTML fragment to its text content.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Titles returns just the headline texts.
func Titles(headlines []Headline) []string {
	out := make([]string, len(headlines))
	for i, h := range headlines {
		out[i] = h.Title
	}
	return out
}
