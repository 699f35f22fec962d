package domain

import "time"

// ListingSite identifies a supported marketplace.
type ListingSite string

const (
	SiteAvito       ListingSite = "avito"
	SiteYoula       ListingSite = "youla"
	SiteKufar       ListingSite = "kufar"
	SiteUnsupported ListingSite = ""
)

// RawDocument is a fetched listing page. It is produced once per extraction
// attempt and consumed read-only by all extractors.
type RawDocument struct {
	SourceURL string
	FetchedAt time.Time
	Body      string
}

// PhotoCandidate is an image URL harvested from a document that might, but is
// not confirmed to, depict the listed item. Value object, never mutated.
type PhotoCandidate struct {
	URL            string
	RawScore       float64
	GroupKey       string
	SourceStrategy string
}

// PhotoGroup is a non-empty set of candidates sharing a group key.
type PhotoGroup struct {
	Key          string
	Candidates   []PhotoCandidate
	AverageScore float64
}

func (g PhotoGroup) Size() int { return len(g.Candidates) }

// NormalizedListing is the pipeline's sole output type. PhotoURLs holds at
// most 6 unique URLs ordered by descending selection confidence; position 0
// is the most representative photo.
type NormalizedListing struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       *float64          `json:"price"`
	Location    string            `json:"location,omitempty"`
	PhotoURLs   []string          `json:"photo_urls"`
	Metadata    map[string]string `json:"metadata"`
}

// Metadata keys attached by the extraction orchestrator.
const (
	MetaSite      = "site"
	MetaListingID = "listing_id"
	MetaStrategy  = "strategy"
	MetaYear      = "year"
)

// ImageIngestResult reports the outcome of ingesting a single photo.
// Exactly one of StorageURL / Error is set. StorageKey is the object key
// backing StorageURL, kept so a downstream failure can clean the object up.
type ImageIngestResult struct {
	OriginalURL string `json:"original_url"`
	StorageURL  string `json:"storage_url,omitempty"`
	StorageKey  string `json:"-"`
	Error       string `json:"error,omitempty"`
}
