// Package webmeta fetches lightweight page metadata (title,
// description) used by analytics page refresh and blog research.
package webmeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

const (
	fetchTimeout  = 10 * time.Second
	maxBodyExtract = 2000
)

// PageMeta is what a single fetch yields.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Excerpt is the first stretch of visible paragraph text, used as
	// research context for generation prompts.
	Excerpt string `json:"excerpt,omitempty"`
}

// Fetch downloads url and extracts its metadata. og: tags win over the
// plain HTML ones when both are present.
func Fetch(ctx context.Context, url string) (PageMeta, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return PageMeta{}, pkgError.ValidationError(fmt.Sprintf("invalid url: %s", url))
	}
	req.Header.Set("User-Agent", "inkwell-cms/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return PageMeta{}, pkgError.UpstreamError(fmt.Sprintf("failed to fetch %s: %v", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return PageMeta{}, pkgError.UpstreamError(fmt.Sprintf("fetch of %s returned status %d", url, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageMeta{}, pkgError.UpstreamError(fmt.Sprintf("failed to parse %s: %v", url, err))
	}

	return extract(doc), nil
}

func extract(doc *goquery.Document) PageMeta {
	meta := PageMeta{}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		meta.Title = strings.TrimSpace(og)
	} else {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && og != "" {
		meta.Description = strings.TrimSpace(og)
	} else if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	}

	var paragraphs []string
	total := 0
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		paragraphs = append(paragraphs, text)
		total += len(text)
		return total < maxBodyExtract
	})
	excerpt := strings.Join(paragraphs, "\n\n")
	if len(excerpt) > maxBodyExtract {
		excerpt = excerpt[:maxBodyExtract]
	}
	meta.Excerpt = excerpt

	return meta
}
