package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/user/listing-ingest/internal/domain"
)

// StructuredResult carries fields recovered from machine-readable page data:
// schema.org product blocks and embedded application-state JSON. Photo URLs
// from this source are highest confidence and bypass the scoring pipeline.
type StructuredResult struct {
	Title       string
	Description string
	Price       *float64
	Location    string
	PhotoURLs   []string
}

// Inline-script markers that precede embedded application-state payloads.
var stateMarkers = []string{
	"__initialData__",
	"__YOULA_STATE__",
	"__PRELOADED_STATE__",
	"__NEXT_DATA__",
}

// Bounds on the loose JSON walk so adversarial payloads terminate.
const (
	maxWalkDepth = 12
	maxWalkNodes = 10000
)

// ExtractStructured scans the document for embedded machine-readable listing
// data. Blobs are attempted in document order; the first one containing a
// listing-shaped node wins. Returns nil when no structured block is found —
// an expected, common case that drives fallback, not an error. The site
// steers price denomination handling.
func ExtractStructured(site domain.ListingSite, body string) *StructuredResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var blobs []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blobs = append(blobs, text)
		}
	})
	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, marker := range stateMarkers {
			if strings.Contains(text, marker) {
				if blob := extractStateBlob(text, marker); blob != "" {
					blobs = append(blobs, blob)
				}
				break
			}
		}
	})

	for _, blob := range blobs {
		if !gjson.Valid(blob) {
			continue
		}
		w := &jsonWalker{}
		if node, ok := w.findListing(gjson.Parse(blob), 0); ok {
			return buildResult(site, node)
		}
	}
	return nil
}

// extractStateBlob pulls the JSON payload assigned after a state marker. Some
// sites assign an object literal, others a quoted URL-encoded string.
func extractStateBlob(script, marker string) string {
	idx := strings.Index(script, marker)
	if idx < 0 {
		return ""
	}
	rest := script[idx+len(marker):]
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return ""
	}
	rest = strings.TrimLeft(rest[eq+1:], " \t\r\n")
	if rest == "" {
		return ""
	}
	if rest[0] == '"' {
		quoted := scanJSString(rest)
		if quoted == "" {
			return ""
		}
		unquoted, err := strconv.Unquote(quoted)
		if err != nil {
			return ""
		}
		if decoded, err := url.QueryUnescape(unquoted); err == nil {
			return decoded
		}
		return unquoted
	}
	if rest[0] == '{' || rest[0] == '[' {
		return scanBalanced(rest)
	}
	return ""
}

// scanJSString returns the leading double-quoted string literal including its
// quotes, or "" if unterminated.
func scanJSString(s string) string {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return s[:i+1]
		}
	}
	return ""
}

// scanBalanced returns the leading balanced {...} or [...] literal,
// respecting string contents, or "" if unterminated.
func scanBalanced(s string) string {
	open, closer := s[0], byte('}')
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// jsonWalker performs a bounded-depth recursive search over a generic JSON
// tree for a listing-shaped object: a title/name field plus either a price or
// an image field.
type jsonWalker struct {
	nodes int
}

func (w *jsonWalker) findListing(v gjson.Result, depth int) (gjson.Result, bool) {
	if depth > maxWalkDepth || w.nodes > maxWalkNodes {
		return gjson.Result{}, false
	}
	w.nodes++

	if v.IsObject() {
		if isListingShaped(v) {
			return v, true
		}
	}
	if v.IsObject() || v.IsArray() {
		var found gjson.Result
		ok := false
		v.ForEach(func(_, child gjson.Result) bool {
			if w.nodes > maxWalkNodes {
				return false
			}
			if node, hit := w.findListing(child, depth+1); hit {
				found, ok = node, true
				return false
			}
			return true
		})
		return found, ok
	}
	return gjson.Result{}, false
}

func isListingShaped(v gjson.Result) bool {
	title := firstString(v, "title", "name")
	if title == "" {
		return false
	}
	if _, ok := extractPrice(v, false); ok {
		return true
	}
	return len(extractImages(v)) > 0
}

func buildResult(site domain.ListingSite, v gjson.Result) *StructuredResult {
	res := &StructuredResult{
		Title:       firstString(v, "title", "name"),
		Description: firstString(v, "description"),
		Location:    extractLocation(v),
		PhotoURLs:   extractImages(v),
	}
	if p, ok := extractPrice(v, site == domain.SiteYoula); ok {
		res.Price = &p
	}
	return res
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s.Type == gjson.String && strings.TrimSpace(s.String()) != "" {
			return strings.TrimSpace(s.String())
		}
	}
	return ""
}

// extractPrice reads a price from the node. Youla's app state denominates
// bare numeric prices in kopecks, so those are converted; string prices
// (meta tags, visible markup) already carry rubles on every site.
func extractPrice(v gjson.Result, numericKopecks bool) (float64, bool) {
	for _, path := range []string{"price", "priceValue", "price.value", "offers.price", "offers.0.price"} {
		p := v.Get(path)
		switch p.Type {
		case gjson.Number:
			if p.Float() > 0 {
				f := p.Float()
				if numericKopecks {
					f /= 100
				}
				return f, true
			}
		case gjson.String:
			if f, ok := ParsePrice(p.String()); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func extractLocation(v gjson.Result) string {
	for _, path := range []string{
		"location.name", "location.city", "location", "address.addressLocality",
		"address", "geo.address",
	} {
		if s := v.Get(path); s.Type == gjson.String && strings.TrimSpace(s.String()) != "" {
			return strings.TrimSpace(s.String())
		}
	}
	return ""
}

// extractImages collects absolute image URLs from whatever shape the image
// field takes: a string, an array of strings, or objects carrying url fields.
func extractImages(v gjson.Result) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if !strings.HasPrefix(s, "http") || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, key := range []string{"images", "image", "photos", "imageUrls"} {
		field := v.Get(key)
		if !field.Exists() {
			continue
		}
		collectURLStrings(field, add, 0)
		if len(out) > 0 {
			break
		}
	}
	if len(out) > maxGalleryPhotos {
		out = out[:maxGalleryPhotos]
	}
	return out
}

func collectURLStrings(v gjson.Result, add func(string), depth int) {
	if depth > 4 {
		return
	}
	switch {
	case v.Type == gjson.String:
		add(v.String())
	case v.IsArray() || v.IsObject():
		v.ForEach(func(_, child gjson.Result) bool {
			collectURLStrings(child, add, depth+1)
			return true
		})
	}
}
