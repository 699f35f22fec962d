package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/listing-ingest/internal/domain"
)

// PostgresStore persists imported listings and their photo ingest results.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SaveImport stores a normalized listing plus its photo rows within a single
// transaction. Photo rows are replaced wholesale; their position column
// preserves the selection-confidence order.
func (s *PostgresStore) SaveImport(ctx context.Context, sourceURL, itemID string, listing *domain.NormalizedListing, photos []domain.ImageIngestResult) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var listingID int
	err = tx.QueryRow(ctx,
		`INSERT INTO imported_listings (source_url, item_id, site, title, description, price, location, strategy)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (source_url) DO UPDATE SET
		   item_id = EXCLUDED.item_id, site = EXCLUDED.site, title = EXCLUDED.title,
		   description = EXCLUDED.description, price = EXCLUDED.price,
		   location = EXCLUDED.location, strategy = EXCLUDED.strategy, updated_at = NOW()
		 RETURNING id`,
		sourceURL, itemID, listing.Metadata[domain.MetaSite], listing.Title,
		listing.Description, listing.Price, nullable(listing.Location),
		listing.Metadata[domain.MetaStrategy],
	).Scan(&listingID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM listing_photos WHERE listing_id = $1`, listingID); err != nil {
		return err
	}

	if len(photos) > 0 {
		batch := &pgx.Batch{}
		for i, p := range photos {
			batch.Queue(
				`INSERT INTO listing_photos (listing_id, position, original_url, storage_url, error)
				 VALUES ($1, $2, $3, $4, $5)`,
				listingID, i, p.OriginalURL, nullable(p.StorageURL), nullable(p.Error))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ImportStatus is the persisted state of the latest import of a URL.
type ImportStatus struct {
	SourceURL  string    `json:"source_url"`
	ItemID     string    `json:"item_id"`
	Title      string    `json:"title"`
	PhotoCount int       `json:"photo_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetImportStatus retrieves the latest import of a listing URL.
func (s *PostgresStore) GetImportStatus(ctx context.Context, url string) (*ImportStatus, error) {
	var status ImportStatus
	err := s.db.QueryRow(ctx,
		`SELECT l.source_url, l.item_id, l.title, COUNT(p.id), l.updated_at
		 FROM imported_listings l
		 LEFT JOIN listing_photos p ON p.listing_id = l.id AND p.storage_url IS NOT NULL
		 WHERE l.source_url = $1
		 GROUP BY l.id`,
		url,
	).Scan(&status.SourceURL, &status.ItemID, &status.Title, &status.PhotoCount, &status.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("not_found")
	}
	return &status, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
