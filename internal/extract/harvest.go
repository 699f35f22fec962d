package extract

import (
	"regexp"
	"strings"

	"github.com/user/listing-ingest/internal/domain"
)

// PhotoMatch is a regex-harvested image URL together with the pattern that
// matched it and its byte offset in the document, used for context scoring.
type PhotoMatch struct {
	URL          string
	PatternIndex int
	Offset       int
}

// Per-site photo URL patterns, most specific first. Pattern order feeds the
// base score: the listing-photo CDN path convention outranks the generic
// image-extension catch-all.
var photoPatterns = map[domain.ListingSite][]*regexp.Regexp{
	domain.SiteAvito: {
		regexp.MustCompile(`https://\d+\.img\.avito\.st/image/1/[A-Za-z0-9._~-]+`),
		regexp.MustCompile(`https://[a-z0-9.-]*avito\.st/[^\s"'<>\\]+?\.(?:jpe?g|png|webp)`),
	},
	domain.SiteYoula: {
		regexp.MustCompile(`https://cache\d*\.youla\.io/files/images/[^\s"'<>\\]+`),
		regexp.MustCompile(`https://[a-z0-9.-]*youla\.io/[^\s"'<>\\]+?\.(?:jpe?g|png|webp)`),
	},
	domain.SiteKufar: {
		regexp.MustCompile(`https://(?:rms|yams)\.kufar\.by/v\d+/[^\s"'<>\\]+`),
		regexp.MustCompile(`https://[a-z0-9.-]*kufar\.by/[^\s"'<>\\]+?\.(?:jpe?g|png|webp)`),
	},
}

// NormalizeBody undoes JSON escaping of slashes so URLs embedded in
// application-state blobs match the same patterns as plain markup.
func NormalizeBody(body string) string {
	return strings.ReplaceAll(body, `\/`, "/")
}

// HarvestPhotos collects every image URL in the document matching the site's
// CDN conventions. A URL seen by several patterns keeps its earliest, most
// specific match.
func HarvestPhotos(site domain.ListingSite, body string) []PhotoMatch {
	patterns := photoPatterns[site]
	seen := make(map[string]bool)
	var matches []PhotoMatch
	for idx, re := range patterns {
		for _, loc := range re.FindAllStringIndex(body, -1) {
			u := body[loc[0]:loc[1]]
			if seen[u] {
				continue
			}
			seen[u] = true
			matches = append(matches, PhotoMatch{URL: u, PatternIndex: idx, Offset: loc[0]})
		}
	}
	return matches
}

// CandidateURLs flattens matches to their unique URLs, preserving document
// order. This is the bounded input handed to the AI selector.
func CandidateURLs(matches []PhotoMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.URL)
	}
	return out
}
