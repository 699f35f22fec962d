// Package ingest downloads selected listing photos and re-hosts them in
// object storage. A failure on one photo never aborts ingestion of the
// others; every input URL yields exactly one result, in input order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
	"github.com/user/listing-ingest/internal/sites"
)

// ObjectStore re-hosts downloaded photos. Upload returns the public URL of
// the stored object; Delete exists for downstream cleanup.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageFetcher downloads a single image with browser-identity headers.
type ImageFetcher interface {
	Bytes(ctx context.Context, url, referer string) ([]byte, string, error)
}

// Ingestor runs the image ingestion pipeline sequentially with a fixed
// inter-request delay to avoid triggering upstream rate limiting.
type Ingestor struct {
	fetcher ImageFetcher
	store   ObjectStore
	delay   time.Duration
	sleep   func(time.Duration)
	logger  *zap.Logger
}

func NewIngestor(fetcher ImageFetcher, store ObjectStore, delay time.Duration, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		store:   store,
		delay:   delay,
		sleep:   time.Sleep,
		logger:  logger,
	}
}

var contentTypeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

// IngestImages downloads each photo URL, uploads successes to object storage
// under a collision-resistant key, and records per-photo errors without
// retrying further. The result sequence preserves input order and length.
func (in *Ingestor) IngestImages(ctx context.Context, urls []string, itemID string) []domain.ImageIngestResult {
	results := make([]domain.ImageIngestResult, 0, len(urls))
	for i, u := range urls {
		if i > 0 && in.delay > 0 {
			in.sleep(in.delay)
		}
		res := domain.ImageIngestResult{OriginalURL: u}

		data, contentType, err := in.download(ctx, u)
		if err != nil {
			in.logger.Warn("photo download failed", zap.String("url", u), zap.Error(err))
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		key := fmt.Sprintf("items/%s/%s%s", itemID, uuid.NewString(), extensionFor(contentType))
		publicURL, err := in.store.Upload(ctx, key, data, contentType)
		if err != nil {
			in.logger.Error("photo upload failed", zap.String("url", u), zap.String("key", key), zap.Error(err))
			res.Error = fmt.Sprintf("upload: %v", err)
		} else {
			res.StorageURL = publicURL
			res.StorageKey = key
		}
		results = append(results, res)
	}
	return results
}

// Cleanup removes the objects a previous IngestImages call uploaded. Called
// when a downstream write fails so an aborted import leaves no orphans in
// object storage. Best effort; a failed delete is logged, not returned.
func (in *Ingestor) Cleanup(ctx context.Context, results []domain.ImageIngestResult) {
	for _, r := range results {
		if r.StorageKey == "" {
			continue
		}
		if err := in.store.Delete(ctx, r.StorageKey); err != nil {
			in.logger.Warn("orphaned object cleanup failed",
				zap.String("key", r.StorageKey), zap.Error(err))
		}
	}
}

// download fetches one image with a site-appropriate referer. CDNs known to
// enforce strict referer matching get exactly one retry with a cleaned URL
// and corrected referer on an access-denied response.
func (in *Ingestor) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	profile, known := sites.ProfileForImageURL(rawURL)
	referer := ""
	if known {
		referer = profile.PhotoReferer
	}

	data, contentType, err := in.fetcher.Bytes(ctx, rawURL, referer)
	if err == nil {
		return data, contentType, nil
	}

	var fe *domain.FetchError
	if known && profile.RefererStrict && errors.As(err, &fe) &&
		(fe.Status == http.StatusForbidden || fe.Status == http.StatusUnauthorized) {
		cleaned := stripTrackingParams(rawURL)
		in.logger.Info("retrying blocked download with cleaned URL",
			zap.String("url", rawURL), zap.Int("status", fe.Status))
		data, contentType, retryErr := in.fetcher.Bytes(ctx, cleaned, profile.PhotoReferer)
		if retryErr == nil {
			return data, contentType, nil
		}
		err = retryErr
	}

	if errors.As(err, &fe) {
		return nil, "", &domain.ImageDownloadError{URL: rawURL, Status: fe.Status, Message: fe.Message}
	}
	return nil, "", &domain.ImageDownloadError{URL: rawURL, Message: err.Error()}
}

func stripTrackingParams(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func extensionFor(contentType string) string {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := contentTypeExt[ct]; ok {
		return ext
	}
	return ".jpg"
}
