// Package history persists a summary of every completed analysis in a
// DuckDB file so it survives restarts.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/models"
)

// DefaultLimit is used by Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

// Store is a DuckDB-backed analysis history.
type Store struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger

	// DuckDB allows one writer per process; serialize our own writes.
	writeMu sync.Mutex
}

// Open opens (or creates) the history database at dbPath. An empty path
// opens an in-memory database.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			session_id     VARCHAR NOT NULL,
			file_name      VARCHAR NOT NULL,
			file_kind      VARCHAR NOT NULL,
			file_size      BIGINT NOT NULL,
			model          VARCHAR NOT NULL,
			top_prediction VARCHAR,
			top_confidence DOUBLE,
			total_words    INTEGER,
			completed_at   BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("history store opened", zap.String("path", dbPath))
	return &Store{db: db, dbPath: dbPath, logger: logger}, nil
}

// Record inserts one completed analysis.
func (s *Store) Record(ctx context.Context, e models.HistoryEntry) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (session_id, file_name, file_kind, file_size, model,
			top_prediction, top_confidence, total_words, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.FileName, string(e.FileKind), e.FileSize, e.Model,
		e.TopPrediction, e.TopConfidence, e.TotalWords, e.CompletedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording analysis: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, file_name, file_kind, file_size, model,
			COALESCE(top_prediction, ''), COALESCE(top_confidence, 0),
			COALESCE(total_words, 0), completed_at
		FROM analyses
		ORDER BY completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e           models.HistoryEntry
			kind        string
			completedAt int64
		)
		if err := rows.Scan(&e.SessionID, &e.FileName, &kind, &e.FileSize, &e.Model,
			&e.TopPrediction, &e.TopConfidence, &e.TotalWords, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.FileKind = models.FileKind(kind)
		e.CompletedAt = time.UnixMilli(completedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded analyses.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
