package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
	"github.com/user/listing-ingest/internal/sites"
)

// PageFetcher fetches a listing page.
type PageFetcher interface {
	Page(ctx context.Context, url string) (*domain.RawDocument, error)
}

// PhotoPicker is the optional AI-assisted photo selection strategy.
type PhotoPicker interface {
	SelectPhotos(ctx context.Context, profile sites.Profile, candidates []string) ([]string, error)
}

// Orchestrator runs extraction strategies in priority order per site:
// structured data, then (if photos are still missing) AI-assisted selection,
// heuristic clustering, and the flat scored fallback. A single strategy's
// failure never aborts the pipeline; it is logged and the next strategy runs.
type Orchestrator struct {
	fetcher PageFetcher
	picker  PhotoPicker // nil when AI selection is not configured
	logger  *zap.Logger
}

func NewOrchestrator(fetcher PageFetcher, picker PhotoPicker, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, picker: picker, logger: logger}
}

type photoStrategy struct {
	name string
	run  func() ([]string, error)
}

// ExtractListing turns a listing URL into a normalized record. It fails only
// when the domain is unsupported, the initial fetch fails, or every strategy
// for both text and photos comes back empty.
func (o *Orchestrator) ExtractListing(ctx context.Context, rawURL string) (*domain.NormalizedListing, error) {
	profile, err := sites.Detect(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := o.fetcher.Page(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	body := NormalizeBody(doc.Body)

	listing := &domain.NormalizedListing{
		Metadata: map[string]string{domain.MetaSite: string(profile.Site)},
	}
	strategy := "patterns"

	if structured := ExtractStructured(profile.Site, body); structured != nil {
		listing.Title = structured.Title
		listing.Description = structured.Description
		listing.Price = structured.Price
		listing.Location = structured.Location
		listing.PhotoURLs = structured.PhotoURLs
		strategy = "structured"
	}

	// Fill remaining text gaps with per-site patterns.
	text := ExtractText(profile.Site, profile.DisplayName, body)
	if listing.Title == "" {
		listing.Title = text.Title
	}
	if listing.Description == "" {
		listing.Description = text.Description
	}
	if listing.Price == nil {
		listing.Price = text.Price
	}
	if listing.Location == "" {
		listing.Location = text.Location
	}

	if len(listing.PhotoURLs) == 0 {
		matches := HarvestPhotos(profile.Site, body)
		for _, strat := range []photoStrategy{
			{"ai", func() ([]string, error) {
				if o.picker == nil {
					return nil, nil
				}
				return o.picker.SelectPhotos(ctx, profile, CandidateURLs(matches))
			}},
			{"cluster", func() ([]string, error) {
				return SelectClustered(body, matches), nil
			}},
			{"flat", func() ([]string, error) {
				return SelectFlat(body, matches), nil
			}},
		} {
			urls, err := strat.run()
			if err != nil {
				o.logger.Warn("photo strategy failed",
					zap.String("strategy", strat.name),
					zap.String("url", rawURL),
					zap.Error(err))
				continue
			}
			if len(urls) > 0 {
				listing.PhotoURLs = urls
				strategy = strat.name
				break
			}
		}
	}

	if isEmptyExtraction(listing, profile.DisplayName) {
		return nil, fmt.Errorf("no listing data could be extracted from %s", rawURL)
	}

	listing.Metadata[domain.MetaStrategy] = strategy
	if id := listingID(rawURL); id != "" {
		listing.Metadata[domain.MetaListingID] = id
	}
	if year := extractYear(listing.Title+" "+listing.Description, time.Now().Year()); year != "" {
		listing.Metadata[domain.MetaYear] = year
	}
	return listing, nil
}

// isEmptyExtraction holds when every field is a placeholder and no photo
// survived — nothing usable came out of any strategy.
func isEmptyExtraction(l *domain.NormalizedListing, displayName string) bool {
	return l.Title == TitlePlaceholder(displayName) &&
		l.Description == descriptionPlaceholder &&
		l.Price == nil &&
		l.Location == "" &&
		len(l.PhotoURLs) == 0
}

var listingIDRe = regexp.MustCompile(`(?:_|/item/|/p)(\d{6,})(?:[/?#]|$)`)

func listingID(rawURL string) string {
	if m := listingIDRe.FindStringSubmatch(rawURL); len(m) > 1 {
		return m[1]
	}
	return ""
}

var yearRe = regexp.MustCompile(`\b(19[5-9]\d|20\d{2})\b`)

// extractYear finds the first plausible calendar year in the combined
// title+description text. Bounded to 1950..current+1 so phone model numbers
// and prices do not leak through.
func extractYear(text string, currentYear int) string {
	for _, m := range yearRe.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if y >= 1950 && y <= currentYear+1 {
			return m
		}
	}
	return ""
}
