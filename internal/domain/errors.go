package domain

import (
	"fmt"
	"strings"
)

// FetchError reports a network or HTTP failure while fetching a URL. It is
// fatal to that fetch; whether it is fatal to the pipeline depends on the
// caller having a fallback strategy.
type FetchError struct {
	URL     string
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// UnsupportedDomainError is returned when a URL's host matches none of the
// supported marketplaces. Always fatal and surfaced before any network fetch.
type UnsupportedDomainError struct {
	Host      string
	Supported []string
}

func (e *UnsupportedDomainError) Error() string {
	return fmt.Sprintf("unsupported domain %q, supported: %s", e.Host, strings.Join(e.Supported, ", "))
}

// AIExtractionError reports a failed AI-assisted selection attempt. Non-fatal
// at the strategy level; the orchestrator falls through to the next strategy.
type AIExtractionError struct {
	Reason string
	Err    error
}

func (e *AIExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai extraction: %s: %v", e.Reason, e.Err)
	}
	return "ai extraction: " + e.Reason
}

func (e *AIExtractionError) Unwrap() error { return e.Err }

// ImageDownloadError reports a per-photo download failure. Always non-fatal;
// it is aggregated into the ImageIngestResult sequence.
type ImageDownloadError struct {
	URL     string
	Status  int
	Message string
}

func (e *ImageDownloadError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("download %s: status %d: %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("download %s: %s", e.URL, e.Message)
}
