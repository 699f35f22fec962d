package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/config"
	"github.com/user/listing-ingest/internal/extract"
	"github.com/user/listing-ingest/internal/fetch"
	"github.com/user/listing-ingest/internal/ingest"
	"github.com/user/listing-ingest/internal/monitoring"
	"github.com/user/listing-ingest/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config       *config.Config
	router       http.Handler
	httpServer   *http.Server
	orchestrator *extract.Orchestrator
	ingestor     *ingest.Ingestor
	fetcher      *fetch.Fetcher
	pgStore      *storage.PostgresStore
	redisStore   *storage.RedisStore
	objectStore  *storage.MinioStore
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

func NewServer(
	cfg *config.Config,
	orch *extract.Orchestrator,
	ing *ingest.Ingestor,
	f *fetch.Fetcher,
	ps *storage.PostgresStore,
	rs *storage.RedisStore,
	os *storage.MinioStore,
	m *monitoring.Metrics,
	l *zap.Logger,
) *Server {
	s := &Server{
		config:       cfg,
		orchestrator: orch,
		ingestor:     ing,
		fetcher:      f,
		pgStore:      ps,
		redisStore:   rs,
		objectStore:  os,
		metrics:      m,
		logger:       l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // an import runs several upstream fetches
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
