package extract

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/listing-ingest/internal/domain"
)

// TextResult holds pattern-extracted text fields. Title and Description fall
// back to documented placeholders — a listing with partial data is preferable
// to no listing.
type TextResult struct {
	Title       string
	Description string
	Price       *float64
	Location    string
}

const descriptionPlaceholder = "No description available"

// TitlePlaceholder is the default title for a site when no pattern matched.
func TitlePlaceholder(displayName string) string {
	return displayName + " Item"
}

type fieldPatterns struct {
	title       []*regexp.Regexp
	description []*regexp.Regexp
	price       []*regexp.Regexp
	location    []*regexp.Regexp
}

// Shared patterns trailing the site-specific ones in every list.
var (
	commonTitle = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta\s+property="og:title"\s+content="([^"]+)"`),
		regexp.MustCompile(`(?is)<h1[^>]*>\s*([^<]+?)\s*</h1>`),
		regexp.MustCompile(`(?is)<title>\s*([^<|]+?)\s*(?:[-|–—].*)?</title>`),
	}
	commonDescription = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta\s+property="og:description"\s+content="([^"]+)"`),
		regexp.MustCompile(`(?is)<meta\s+name="description"\s+content="([^"]+)"`),
		regexp.MustCompile(`(?s)"description"\s*:\s*"((?:[^"\\]|\\.)+)"`),
	}
	commonPrice = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta\s+(?:itemprop|property)="(?:price|product:price:amount)"\s+content="([\d.,\s]+)"`),
		regexp.MustCompile(`(?s)"price"\s*:\s*"?(\d[\d\s\x{00a0},.]*)`),
	}
	commonLocation = []*regexp.Regexp{
		regexp.MustCompile(`(?s)"addressLocality"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		regexp.MustCompile(`(?s)"address"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		regexp.MustCompile(`(?is)itemprop="address"[^>]*>\s*([^<]+?)\s*<`),
	}
)

var sitePatterns = map[domain.ListingSite]fieldPatterns{
	domain.SiteAvito: {
		title: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)"title"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		}, commonTitle...),
		description: commonDescription,
		price: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)"priceValue"\s*:\s*"?(\d[\d\s\x{00a0}]*)`),
			regexp.MustCompile(`(?s)(\d[\d\s\x{00a0}]{1,12})\s*(?:₽|руб)`),
		}, commonPrice...),
		location: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)"location"\s*:\s*\{[^{}]*"name"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		}, commonLocation...),
	},
	domain.SiteYoula: {
		title:       commonTitle,
		description: commonDescription,
		price: append([]*regexp.Regexp{
			// Youla app state carries kopeck-denominated integers elsewhere;
			// the meta tags and visible price are the reliable sources.
			regexp.MustCompile(`(?s)(\d[\d\s\x{00a0}]{1,12})\s*(?:₽|руб)`),
		}, commonPrice...),
		location: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)"cityName"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		}, commonLocation...),
	},
	domain.SiteKufar: {
		title:       commonTitle,
		description: commonDescription,
		price: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)(\d[\d\s\x{00a0}]{1,12})\s*(?:р\.|BYN)`),
		}, commonPrice...),
		location: append([]*regexp.Regexp{
			regexp.MustCompile(`(?s)"area"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		}, commonLocation...),
	},
}

// ExtractText runs the site's ordered regex rules for each text field; the
// first matching non-empty group wins. Missing fields get placeholders
// instead of failing the extraction.
func ExtractText(site domain.ListingSite, displayName, body string) TextResult {
	patterns, ok := sitePatterns[site]
	if !ok {
		patterns = fieldPatterns{
			title:       commonTitle,
			description: commonDescription,
			price:       commonPrice,
			location:    commonLocation,
		}
	}

	res := TextResult{
		Title:       firstMatch(patterns.title, body),
		Description: firstMatch(patterns.description, body),
		Location:    firstMatch(patterns.location, body),
	}
	if raw := firstMatch(patterns.price, body); raw != "" {
		if p, ok := ParsePrice(raw); ok {
			res.Price = &p
		}
	}

	if res.Title == "" {
		res.Title = TitlePlaceholder(displayName)
	}
	if res.Description == "" {
		res.Description = descriptionPlaceholder
	}
	return res
}

func firstMatch(patterns []*regexp.Regexp, body string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(body)
		if len(m) > 1 {
			if v := strings.TrimSpace(decodeMatch(m[1])); v != "" {
				return v
			}
		}
	}
	return ""
}

// decodeMatch undoes the two escapings a matched group can carry: JSON string
// escapes when matched inside a blob, HTML entities when matched in markup.
// Quotes inside a JSON-sourced group are already escaped, so the group is a
// valid string body as-is; anything that fails to unquote (a stray backslash
// from markup) is kept raw.
func decodeMatch(s string) string {
	if strings.ContainsRune(s, '\\') {
		if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
			s = unquoted
		}
	}
	return html.UnescapeString(s)
}

// ParsePrice normalizes a matched price string: strips thousands separators
// and whitespace, rejects non-numeric and zero/negative results.
func ParsePrice(raw string) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// 1,234.56 — comma is a thousands separator
			s = strings.ReplaceAll(s, ",", "")
		} else if i := strings.LastIndex(s, ","); len(s)-i-1 == 2 {
			// 1234,56 — comma is the decimal separator
			s = s[:i] + "." + s[i+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	s = strings.TrimSuffix(s, ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
