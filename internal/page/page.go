package page

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	// ErrPageFetch is returned when the video page cannot be downloaded.
	ErrPageFetch = errors.New("video page fetch failed")
	// ErrManifestNotFound is returned when the page text contains no manifest URL.
	ErrManifestNotFound = errors.New("manifest URL not found")
)

// preferredMarker tags the broadcaster's highest-quality manifest variant.
const preferredMarker = "QXB.mp4"

var (
	manifestPattern = regexp.MustCompile(`"(https?://[^"\s]+?manifest\.mpd)"`)
	titlePattern    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// Getter fetches a whole resource.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Page is the scraped content of a video page.
type Page struct {
	URL          string
	Title        string
	ManifestURLs []string
}

// Fetch downloads the video page at url and scrapes its title and manifest URLs.
func Fetch(ctx context.Context, getter Getter, url string) (*Page, error) {
	data, _, err := getter.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPageFetch, url, err)
	}
	return Parse(url, string(data)), nil
}

// Parse scrapes an already downloaded page.
func Parse(url, body string) *Page {
	return &Page{
		URL:          url,
		Title:        ExtractTitle(body),
		ManifestURLs: ExtractManifestURLs(body),
	}
}

// ExtractTitle returns the unescaped text of the first <title> element.
func ExtractTitle(body string) string {
	match := titlePattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(match[1])), " ")
}

// ExtractManifestURLs returns every quoted http(s) URL ending in manifest.mpd, in page order.
func ExtractManifestURLs(body string) []string {
	var urls []string
	for _, match := range manifestPattern.FindAllStringSubmatch(body, -1) {
		urls = append(urls, match[1])
	}
	return urls
}

// ManifestURL picks the manifest to download: the first one found, unless a
// later one carries the high-quality marker.
func (p *Page) ManifestURL() (string, error) {
	if len(p.ManifestURLs) == 0 {
		return "", fmt.Errorf("%w in %s", ErrManifestNotFound, p.URL)
	}
	for _, u := range p.ManifestURLs[1:] {
		if strings.Contains(u, preferredMarker) {
			return u, nil
		}
	}
	return p.ManifestURLs[0], nil
}
