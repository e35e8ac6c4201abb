// Package catalog extracts chapter and page URLs from manga.in.ua markup.
// The selectors mirror the site's current structure and are treated as a
// versioned external dependency: when the markup drifts, parsing fails
// loudly with a ParseError instead of returning an empty list.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/okarpenko/mangaua/internal/fetch"
)

const (
	mangasPath        = "/mangas/"
	chapterLinksClass = "forfastnavigation.chapterscalc"
	imageURLAttr      = "data-src"
)

// ParseError means the page was fetched but did not contain the expected
// structure. Retrying cannot fix it.
type ParseError struct {
	URL      string
	Selector string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no matches for %q at %s (site markup changed?)", e.Selector, e.URL)
}

type Chapter struct {
	Index int // 1-based position in catalog order
	URL   string
}

type Page struct {
	Ordinal int // 1-based position within the chapter
	URL     string
}

type Catalog struct {
	client  *http.Client
	baseURL string
	retries int
	backoff time.Duration
	log     interface {
		Debugf(string, ...any)
		Warnf(string, ...any)
	}
}

func New(client *http.Client, baseURL string, retries int, log interface {
	Debugf(string, ...any)
	Warnf(string, ...any)
}) *Catalog {
	return &Catalog{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: retries,
		backoff: time.Second,
		log:     log,
	}
}

// MangaURL turns a relative slug like "boyovik/2252-berserk-berserk.html"
// into an absolute listing URL. Absolute URLs pass through untouched.
func (c *Catalog) MangaURL(slug string) string {
	if strings.HasPrefix(slug, "http://") || strings.HasPrefix(slug, "https://") {
		return slug
	}

	return c.baseURL + mangasPath + strings.TrimLeft(slug, "/")
}

// Slug extracts the short manga name used for default folder and file names.
func Slug(mangaURL string) string {
	s := mangaURL
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimSuffix(s, ".html")
}

func (c *Catalog) fetchDOM(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := fetch.DoWithRetry(c.client, req, c.retries, c.backoff)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return goquery.NewDocumentFromReader(resp.Body)
}

// Chapters returns the manga's chapter URLs in site presentation order,
// which the site keeps monotonic with chapter numbering.
func (c *Catalog) Chapters(ctx context.Context, mangaURL string) ([]Chapter, error) {
	doc, err := c.fetchDOM(ctx, mangaURL)
	if err != nil {
		return nil, err
	}

	var out []Chapter
	seen := map[string]bool{}

	doc.Find("a." + chapterLinksClass).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		u := c.resolve(mangaURL, strings.TrimSpace(href))
		if seen[u] {
			return
		}
		seen[u] = true

		out = append(out, Chapter{Index: len(out) + 1, URL: u})
	})

	if len(out) == 0 {
		return nil, &ParseError{URL: mangaURL, Selector: "a." + chapterLinksClass}
	}

	c.log.Debugf("Found %d chapter links at %s", len(out), mangaURL)

	return out, nil
}

// Pages returns the chapter's image URLs in page order. The site lazy-loads
// page images and keeps the real URL in data-src. An empty result is
// re-fetched a few times first because the site answers 200 with a
// placeholder page while rate limiting.
func (c *Catalog) Pages(ctx context.Context, chapterURL string) ([]Page, error) {
	var out []Page

	for attempt := 1; attempt <= c.retries; attempt++ {
		doc, err := c.fetchDOM(ctx, chapterURL)
		if err != nil {
			return nil, err
		}

		out = out[:0]
		doc.Find("[" + imageURLAttr + "]").Each(func(_ int, el *goquery.Selection) {
			src, ok := el.Attr(imageURLAttr)
			if !ok || strings.TrimSpace(src) == "" {
				return
			}

			out = append(out, Page{
				Ordinal: len(out) + 1,
				URL:     c.resolve(chapterURL, strings.TrimSpace(src)),
			})
		})

		if len(out) > 0 {
			return out, nil
		}

		if attempt < c.retries {
			c.log.Warnf("No images at %s yet, retry %d/%d", chapterURL, attempt, c.retries)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}

	return nil, &ParseError{URL: chapterURL, Selector: "[" + imageURLAttr + "]"}
}

func (c *Catalog) resolve(pageURL, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.IsAbs() {
		return u.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return raw
	}

	return base.ResolveReference(u).String()
}
