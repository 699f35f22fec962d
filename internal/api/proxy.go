package api

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
	"github.com/user/listing-ingest/internal/sites"
)

// handleImageProxy streams an externally hosted listing photo so the UI can
// display CORS-restricted CDN images. Only allowlisted CDN hosts pass.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.respondWithError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		s.respondWithError(w, http.StatusBadRequest, "invalid url")
		return
	}
	if !sites.AllowedImageHost(u.Hostname()) {
		s.respondWithError(w, http.StatusForbidden, "host is not an allowed image CDN")
		return
	}

	referer := ""
	if profile, ok := sites.ProfileForImageURL(raw); ok {
		referer = profile.PhotoReferer
	}

	data, contentType, err := s.fetcher.Bytes(r.Context(), raw, referer)
	if err != nil {
		s.logger.Warn("proxy fetch failed", zap.String("url", raw), zap.Error(err))
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Status > 0 {
			s.respondWithError(w, http.StatusBadGateway, "upstream returned an error")
			return
		}
		s.respondWithError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
