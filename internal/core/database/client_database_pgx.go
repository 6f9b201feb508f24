package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/policyrag/internal/config"
	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

type DatabaseClient struct {
	db    *sql.DB
	table string
	dim   int
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is empty", core.ErrConfiguration)
	}

	dsn, err := withSSL(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return newWithDB(db, ChunksTable, cfg.EmbedDim), nil
}

func newWithDB(db *sql.DB, table string, dim int) *DatabaseClient {
	return &DatabaseClient{db: db, table: table, dim: dim}
}

// withSSL appends verify-ca parameters when a root certificate is configured.
func withSSL(databaseURL, certPath string) (string, error) {
	if certPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(certPath); err != nil {
		return "", fmt.Errorf("%w: ssl cert not accessible at %q: %v", core.ErrConfiguration, certPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid DATABASE_URL: %v", core.ErrConfiguration, err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", certPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) checkDim(vec []float32) error {
	if len(vec) != c.dim {
		return fmt.Errorf("%w: vector has %d dimensions, %s.embedding has %d", core.ErrSchemaMismatch, len(vec), c.table, c.dim)
	}
	return nil
}

// InsertChunk appends one row and returns its id. Rows are never updated.
func (c *DatabaseClient) InsertChunk(ctx context.Context, rec models.ChunkRecord) (int64, error) {
	if err := c.checkDim(rec.Embedding); err != nil {
		return 0, err
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (source, page, chunk_index, chunk, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.table)

	var id int64
	err := c.db.QueryRowContext(ctx, q,
		rec.Source, rec.Page, rec.ChunkIndex, rec.Chunk, pgvector.NewVector(rec.Embedding),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert chunk %s p.%d #%d: %w", rec.Source, rec.Page, rec.ChunkIndex, err)
	}
	return id, nil
}

// SearchChunks returns the k rows closest to query by cosine distance.
func (c *DatabaseClient) SearchChunks(ctx context.Context, query []float32, k int) ([]models.SearchHit, error) {
	if err := c.checkDim(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 5
	}

	q := fmt.Sprintf(`
		SELECT id, source, page, chunk_index, chunk, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, c.table)

	rows, err := c.db.QueryContext(ctx, q, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.ID, &h.Source, &h.Page, &h.ChunkIndex, &h.Chunk, &h.Distance); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SourceIngested reports whether any row exists for source.
func (c *DatabaseClient) SourceIngested(ctx context.Context, source string) (bool, error) {
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE source = $1)`, c.table)
	var exists bool
	if err := c.db.QueryRowContext(ctx, q, source).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
