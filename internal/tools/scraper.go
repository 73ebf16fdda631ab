package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Scraper defaults.
const (
	DefaultScrapeTimeout  = 10 * time.Second
	DefaultScrapeMaxChars = 3000

	scrapeUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// maxResponseBytes bounds how much of a page is read before
	// extraction. Pages larger than this are extremely rare for
	// article content.
	maxResponseBytes = 4 << 20
)

// Scraper fetches a web page and extracts its readable text content.
type Scraper struct {
	client   *http.Client
	maxChars int
}

// NewScraper creates a Scraper. Non-positive arguments use defaults.
func NewScraper(timeout time.Duration, maxChars int) *Scraper {
	if timeout <= 0 {
		timeout = DefaultScrapeTimeout
	}
	if maxChars <= 0 {
		maxChars = DefaultScrapeMaxChars
	}
	return &Scraper{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

func (s *Scraper) Name() string { return "WebScraper" }

func (s *Scraper) Description() string {
	return "Fetches a web page and returns its title and readable text. Input: a full http or https URL."
}

// Call fetches the URL in input and returns the extracted page text, or
// an "Error: ..." string when the fetch or extraction fails.
func (s *Scraper) Call(ctx context.Context, input string) string {
	pageURL, err := parsePageURL(input)
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return fmt.Sprintf("Error: building request: %s", err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error: fetching page: %s", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Sprintf("Error: reading page: %s", err)
	}

	title, text := extractReadable(body, pageURL)
	if text == "" {
		return "Error: no readable content found on page"
	}
	if len(text) > s.maxChars {
		text = text[:s.maxChars] + "... [truncated]"
	}
	return fmt.Sprintf("Title: %s\n\nContent:\n%s", title, text)
}

// parsePageURL validates that input is an absolute http or https URL.
func parsePageURL(input string) (*url.URL, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, fmt.Errorf("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q (only http and https)", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL has no host")
	}
	return u, nil
}

// extractReadable pulls the article title and text from an HTML page.
// Readability extraction is attempted first; pages it cannot parse fall
// back to a plain DOM text walk.
func extractReadable(body []byte, pageURL *url.URL) (title, text string) {
	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.Title), collapseWhitespace(article.TextContent)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()
	title = strings.TrimSpace(doc.Find("title").First().Text())
	return title, collapseWhitespace(doc.Find("body").Text())
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
