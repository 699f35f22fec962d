package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/user/listing-ingest/internal/domain"
)

// Scoring weights. Tuned empirically against observed marketplace markup;
// treat as starting calibration, with tests pinning relative order only.
const (
	basePatternScore = 10.0 // score of a pattern-0 match
	patternOrderStep = 2.0  // deducted per pattern position

	hiResPathBonus  = 4.0 // listing-photo CDN path convention
	resolutionBonus = 3.0 // explicit large-resolution token in the URL

	contextBonus   = 2.0 // per gallery/carousel keyword near the match
	contextPenalty = 6.0 // per avatar/ad/recommendation keyword near the match

	tinyDimensionPenalty = 20.0 // 32x32-class tokens are never listing photos

	contextWindow = 500 // bytes inspected before and after a match

	clusterMinSize   = 3 // expected gallery size range, inclusive
	clusterMaxSize   = 8
	clusterSizeBonus = 2.0

	maxGalleryPhotos  = 6
	maxFallbackPhotos = 5
	fallbackMinScore  = 12.0
)

var hiResPathMarkers = []string{"/image/1/", "/orig/", "_orig", "780_780", "halfreal"}

// Substring checks, not word-boundary regexes: CDN URLs glue size tokens to
// hashes with underscores.
var resolutionTokens = []string{"960x960", "1280x", "1920x", "x1080", "1080p", "x720", "720p"}

var tinyDimensionTokens = []string{"16x16", "24x24", "32x32", "48x48", "50x50", "64x64"}

var positiveContext = []string{
	"gallery", "carousel", "swiper", "slider", "image-frame", "photo-slider",
	"item-view", "item-photo", "product-photo",
}

var negativeContext = []string{
	"avatar", "profile", "user-photo", "userpic", "cover", "header", "banner",
	"advert", "promo", "sponsored", "recommend", "similar", "related",
	"comment", "icon", "badge", "logo", "sprite",
}

// ScoreCandidates is a pure function of (document, matches): it assigns each
// harvested URL a relevance score from URL shape and surrounding text, and
// derives its clustering group key. No network or AI calls happen here.
func ScoreCandidates(body string, matches []PhotoMatch) []domain.PhotoCandidate {
	out := make([]domain.PhotoCandidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, domain.PhotoCandidate{
			URL:            m.URL,
			RawScore:       scoreMatch(body, m),
			GroupKey:       groupKey(m.URL),
			SourceStrategy: "heuristic",
		})
	}
	return out
}

func scoreMatch(body string, m PhotoMatch) float64 {
	score := basePatternScore - patternOrderStep*float64(m.PatternIndex)

	lower := strings.ToLower(m.URL)
	if containsAny(lower, hiResPathMarkers) {
		score += hiResPathBonus
	}
	if containsAny(lower, resolutionTokens) {
		score += resolutionBonus
	}
	if containsAny(lower, tinyDimensionTokens) {
		score -= tinyDimensionPenalty
	}

	start := m.Offset - contextWindow
	if start < 0 {
		start = 0
	}
	end := m.Offset + len(m.URL) + contextWindow
	if end > len(body) {
		end = len(body)
	}
	window := strings.ToLower(body[start:end])
	for _, kw := range positiveContext {
		if strings.Contains(window, kw) {
			score += contextBonus
		}
	}
	for _, kw := range negativeContext {
		if strings.Contains(window, kw) {
			score -= contextPenalty
		}
	}
	return score
}

// groupKey strips size/cache parameters and the per-photo path segment so
// photos of one listing, which share a CDN section, land in one group.
func groupKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 0 {
		segs = segs[:len(segs)-1]
	}
	kept := segs[:0]
	for _, s := range segs {
		if sizeSegmentRe.MatchString(s) {
			continue
		}
		kept = append(kept, s)
	}
	return strings.ToLower(u.Hostname()) + "/" + strings.Join(kept, "/")
}

var sizeSegmentRe = regexp.MustCompile(`^\d{2,4}[x_]\d{2,4}(?:_[a-z]+)?$`)

// ClusterCandidates groups candidates by group key and computes per-group
// average scores.
func ClusterCandidates(cands []domain.PhotoCandidate) []domain.PhotoGroup {
	byKey := make(map[string][]domain.PhotoCandidate)
	var order []string
	for _, c := range cands {
		if _, ok := byKey[c.GroupKey]; !ok {
			order = append(order, c.GroupKey)
		}
		byKey[c.GroupKey] = append(byKey[c.GroupKey], c)
	}
	groups := make([]domain.PhotoGroup, 0, len(order))
	for _, key := range order {
		members := byKey[key]
		var sum float64
		for _, c := range members {
			sum += c.RawScore
		}
		groups = append(groups, domain.PhotoGroup{
			Key:          key,
			Candidates:   members,
			AverageScore: sum / float64(len(members)),
		})
	}
	return groups
}

// SelectClustered picks the best photo gallery: the group with the highest
// average score plus a size bonus when the group size falls in the expected
// gallery range. Returns nil when no group corroborates a gallery, which
// sends the orchestrator to the stricter flat fallback.
func SelectClustered(body string, matches []PhotoMatch) []string {
	groups := ClusterCandidates(ScoreCandidates(body, matches))

	var best *domain.PhotoGroup
	var bestScore float64
	for i := range groups {
		g := &groups[i]
		if g.Size() < 2 {
			continue
		}
		score := g.AverageScore
		if g.Size() >= clusterMinSize && g.Size() <= clusterMaxSize {
			score += clusterSizeBonus
		}
		if best == nil || score > bestScore {
			best, bestScore = g, score
		}
	}
	if best == nil {
		return nil
	}

	members := make([]domain.PhotoCandidate, 0, best.Size())
	for _, c := range best.Candidates {
		if c.RawScore > 0 {
			members = append(members, c)
		}
	}
	return rankAndTruncate(members, maxGalleryPhotos)
}

// SelectFlat is the fallback when clustering yields no gallery. Without group
// corroboration each candidate must clear an absolute score threshold and
// carry a format/quality marker on the URL itself.
func SelectFlat(body string, matches []PhotoMatch) []string {
	scored := ScoreCandidates(body, matches)
	accepted := make([]domain.PhotoCandidate, 0, len(scored))
	for _, c := range scored {
		if c.RawScore < fallbackMinScore {
			continue
		}
		if !urlHasQualityMarker(c.URL) {
			continue
		}
		accepted = append(accepted, c)
	}
	return rankAndTruncate(accepted, maxFallbackPhotos)
}

func urlHasQualityMarker(raw string) bool {
	lower := strings.ToLower(raw)
	if containsAny(lower, hiResPathMarkers) {
		return true
	}
	return containsAny(lower, resolutionTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// rankAndTruncate sorts descending by score (URL breaks ties so the result is
// deterministic), deduplicates exact repeats, and caps the list.
func rankAndTruncate(cands []domain.PhotoCandidate, limit int) []string {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].RawScore != cands[j].RawScore {
			return cands[i].RawScore > cands[j].RawScore
		}
		return cands[i].URL < cands[j].URL
	})
	seen := make(map[string]bool, len(cands))
	var out []string
	for _, c := range cands {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c.URL)
		if len(out) == limit {
			break
		}
	}
	return out
}
