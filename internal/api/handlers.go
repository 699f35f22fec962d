package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
	"github.com/user/listing-ingest/internal/sites"
)

type importRequest struct {
	URL    string `json:"url"`
	ItemID string `json:"item_id"`
	Force  bool   `json:"force"` // bypass the re-import suppression window
}

type importResponse struct {
	ItemID  string                     `json:"item_id"`
	Listing *domain.NormalizedListing  `json:"listing"`
	Photos  []domain.ImageIngestResult `json:"photos"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid URL: "+req.URL)
		return
	}

	// Reject unsupported hosts before any network fetch.
	if _, err := sites.Detect(req.URL); err != nil {
		s.metrics.IncErrorsTotal("unsupported_domain")
		s.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if !req.Force {
		recent, err := s.redisStore.IsRecentlyImported(ctx, req.URL)
		if err != nil {
			s.logger.Error("failed to check redis for import status", zap.String("url", req.URL), zap.Error(err))
		}
		if recent {
			s.respondWithError(w, http.StatusConflict, "URL was imported recently; set force to re-import")
			return
		}
	}

	itemID := req.ItemID
	if itemID == "" {
		itemID = uuid.NewString()
	}

	listing, err := s.orchestrator.ExtractListing(ctx, req.URL)
	if err != nil {
		s.handleExtractionFailure(ctx, w, req.URL, err)
		return
	}

	photos := s.ingestor.IngestImages(ctx, listing.PhotoURLs, itemID)
	stored, failed := 0, 0
	for _, p := range photos {
		if p.StorageURL != "" {
			stored++
		} else {
			failed++
		}
	}
	s.metrics.AddImages("stored", stored)
	s.metrics.AddImages("failed", failed)
	s.metrics.IncExtraction(listing.Metadata[domain.MetaSite], listing.Metadata[domain.MetaStrategy])

	if err := s.pgStore.SaveImport(ctx, req.URL, itemID, listing, photos); err != nil {
		s.logger.Error("error saving import", zap.String("url", req.URL), zap.Error(err))
		s.metrics.IncErrorsTotal("db_save_failed")
		// The import is not recorded; remove the uploaded photos too.
		s.ingestor.Cleanup(ctx, photos)
		s.respondWithError(w, http.StatusInternalServerError, "Could not persist import")
		return
	}

	ttl := time.Duration(s.config.DedupeHours) * time.Hour
	if err := s.redisStore.MarkImported(ctx, req.URL, ttl); err != nil {
		s.logger.Error("failed to mark URL as imported", zap.String("url", req.URL), zap.Error(err))
	}

	s.logger.Info("listing imported",
		zap.String("url", req.URL),
		zap.String("item_id", itemID),
		zap.String("strategy", listing.Metadata[domain.MetaStrategy]),
		zap.Int("photos_stored", stored))

	s.respondWithJSON(w, http.StatusOK, importResponse{ItemID: itemID, Listing: listing, Photos: photos})
}

func (s *Server) handleExtractionFailure(ctx context.Context, w http.ResponseWriter, rawURL string, err error) {
	if count, cerr := s.redisStore.IncrementFailureCount(ctx, rawURL); cerr == nil && count > 1 {
		s.logger.Warn("URL has failed repeatedly", zap.String("url", rawURL), zap.Int64("failures", count))
	}

	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		s.metrics.IncErrorsTotal("fetch_failed")
		s.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.metrics.IncErrorsTotal("extraction_failed")
	s.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	urlParam := r.URL.Query().Get("url")
	if urlParam == "" {
		s.respondWithError(w, http.StatusBadRequest, "URL query parameter is required")
		return
	}

	status, err := s.pgStore.GetImportStatus(r.Context(), urlParam)
	if err != nil {
		if err.Error() == "not_found" {
			s.respondWithError(w, http.StatusNotFound, "URL has not been imported")
			return
		}
		s.logger.Error("failed to get import status", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve status")
		return
	}

	s.respondWithJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if err := s.pgStore.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	if err := s.objectStore.Ping(ctx); err != nil {
		healthStatus["object_storage"] = "unhealthy"
		s.logger.Error("health check failed for object storage", zap.Error(err))
	} else {
		healthStatus["object_storage"] = "healthy"
	}

	for _, v := range healthStatus {
		if v != "healthy" {
			s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
			return
		}
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
