// Package fetch issues plain HTTP GETs with browser-identity headers. No
// retries live here; retry policy belongs to callers that know why a fetch
// failed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
)

// maxBodyBytes caps how much of a response we read. Listing pages and photos
// are well under this; anything larger is not worth ingesting.
const maxBodyBytes = 20 << 20

// Fetcher wraps an http.Client with browser-identity headers.
type Fetcher struct {
	client   *http.Client
	identity *Identity
	logger   *zap.Logger
}

func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		identity: NewIdentity(),
		logger:   logger,
	}
}

// Page fetches a listing page and returns it as a RawDocument. Non-2xx
// responses and transport failures surface as *domain.FetchError.
func (f *Fetcher) Page(ctx context.Context, rawURL string) (*domain.RawDocument, error) {
	body, _, err := f.get(ctx, rawURL, "")
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		SourceURL: rawURL,
		FetchedAt: time.Now(),
		Body:      string(body),
	}, nil
}

// Bytes fetches a binary resource (an image) with an optional referer and
// returns the body plus the response content type.
func (f *Fetcher) Bytes(ctx context.Context, rawURL, referer string) ([]byte, string, error) {
	return f.get(ctx, rawURL, referer)
}

func (f *Fetcher) get(ctx context.Context, rawURL, referer string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Message: err.Error()}
	}
	req.Header.Set("User-Agent", f.identity.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ru;q=0.8")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, 4096)
		return nil, "", &domain.FetchError{
			URL:     rawURL,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Status: resp.StatusCode, Message: err.Error()}
	}
	return body, resp.Header.Get("Content-Type"), nil
}
