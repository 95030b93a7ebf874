package pii

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
)

// StoreConfig holds connection settings for the Postgres mapping store.
type StoreConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// MappingStore persists original-to-dummy replacement pairs so that the
// fake operator produces stable replacements and anonymized output can
// be restored.
type MappingStore interface {
	// StoreMapping stores a mapping with the entity type and detection
	// confidence it was created under.
	StoreMapping(ctx context.Context, original, dummy, piiType string, confidence float64) error

	// GetDummy retrieves the dummy value for an original span.
	GetDummy(ctx context.Context, original string) (string, bool, error)

	// GetOriginal retrieves the original span for a dummy value.
	GetOriginal(ctx context.Context, dummy string) (string, bool, error)

	// DeleteMapping removes the mapping for an original span.
	DeleteMapping(ctx context.Context, original string) error

	// CleanupOldMappings removes mappings older than the given duration
	// and reports how many were deleted.
	CleanupOldMappings(ctx context.Context, olderThan time.Duration) (int64, error)

	// Close releases the store's resources.
	Close() error
}

// CleanupLoop deletes mappings older than maxAge every interval until
// the context is canceled. One cleanup runs immediately on start.
func CleanupLoop(ctx context.Context, store MappingStore, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	cleanup := func() {
		removed, err := store.CleanupOldMappings(ctx, maxAge)
		if err != nil {
			log.Warn("mapping cleanup failed", "err", err)
			return
		}
		if removed > 0 {
			log.Info("removed expired PII mappings", "count", removed)
		}
	}
	cleanup()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanup()
		}
	}
}

// PostgresMappingStore implements MappingStore on PostgreSQL.
type PostgresMappingStore struct {
	db *sql.DB
}

// NewPostgresMappingStore opens a connection pool and ensures the
// mapping table exists.
func NewPostgresMappingStore(ctx context.Context, config StoreConfig) (*PostgresMappingStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createMappingTable(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresMappingStore{db: db}, nil
}

func createMappingTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS pii_mappings (
		id SERIAL PRIMARY KEY,
		original TEXT NOT NULL UNIQUE,
		dummy TEXT NOT NULL UNIQUE,
		pii_type TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_pii_mappings_dummy ON pii_mappings (dummy);
	CREATE INDEX IF NOT EXISTS idx_pii_mappings_created_at ON pii_mappings (created_at);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// StoreMapping stores a mapping, updating the dummy on conflict.
func (s *PostgresMappingStore) StoreMapping(ctx context.Context, original, dummy, piiType string, confidence float64) error {
	query := `
	INSERT INTO pii_mappings (original, dummy, pii_type, confidence)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (original) DO UPDATE
	SET dummy = EXCLUDED.dummy, pii_type = EXCLUDED.pii_type, confidence = EXCLUDED.confidence
	`
	if _, err := s.db.ExecContext(ctx, query, original, dummy, piiType, confidence); err != nil {
		return fmt.Errorf("failed to store mapping: %w", err)
	}
	return nil
}

// GetDummy retrieves the dummy value for an original span.
func (s *PostgresMappingStore) GetDummy(ctx context.Context, original string) (string, bool, error) {
	var dummy string
	err := s.db.QueryRowContext(ctx, `SELECT dummy FROM pii_mappings WHERE original = $1`, original).Scan(&dummy)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query mapping: %w", err)
	}
	return dummy, true, nil
}

// GetOriginal retrieves the original span for a dummy value.
func (s *PostgresMappingStore) GetOriginal(ctx context.Context, dummy string) (string, bool, error) {
	var original string
	err := s.db.QueryRowContext(ctx, `SELECT original FROM pii_mappings WHERE dummy = $1`, dummy).Scan(&original)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query mapping: %w", err)
	}
	return original, true, nil
}

// DeleteMapping removes the mapping for an original span.
func (s *PostgresMappingStore) DeleteMapping(ctx context.Context, original string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pii_mappings WHERE original = $1`, original); err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}

// CleanupOldMappings removes mappings older than the given duration.
func (s *PostgresMappingStore) CleanupOldMappings(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM pii_mappings WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup mappings: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *PostgresMappingStore) Close() error {
	return s.db.Close()
}
