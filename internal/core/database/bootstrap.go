package db

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"regexp"
	"text/template"
	"time"

	"github.com/markdave123-py/policyrag/internal/core"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// pgvector cannot build HNSW indexes above this many dimensions.
const maxHNSWDim = 2000

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type schemaParams struct {
	Table string
	Dim   int
	HNSW  bool
}

func renderBootstrap(table string, dim int) (string, error) {
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("%w: invalid table name %q", core.ErrConfiguration, table)
	}
	if dim <= 0 {
		return "", fmt.Errorf("%w: embedding dimension must be positive, got %d", core.ErrConfiguration, dim)
	}

	raw, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return "", fmt.Errorf("read initdb.sql: %w", err)
	}
	tmpl, err := template.New("initdb").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse initdb.sql: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, schemaParams{Table: table, Dim: dim, HNSW: dim <= maxHNSWDim}); err != nil {
		return "", fmt.Errorf("render initdb.sql: %w", err)
	}
	return buf.String(), nil
}

// EnsureSchema creates the extension, table and indexes if they are missing
// and verifies the vector column matches the configured dimension. Safe to
// call on every run.
func (c *DatabaseClient) EnsureSchema(ctx context.Context) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	script, err := renderBootstrap(c.table, c.dim)
	if err != nil {
		return err
	}
	if err := runBootstrap(ctxBoot, c.db, script); err != nil {
		return err
	}

	got, err := c.columnDimension(ctxBoot)
	if err != nil {
		return err
	}
	if got != c.dim {
		return fmt.Errorf("%w: %s.embedding has %d dimensions, EMBED_DIM is %d", core.ErrSchemaMismatch, c.table, got, c.dim)
	}

	log.Printf("Database: schema ready (%s, vector(%d))", c.table, c.dim)
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}

// columnDimension reads the declared dimension of the embedding column; for
// pgvector the type modifier is the dimension itself.
func (c *DatabaseClient) columnDimension(ctx context.Context) (int, error) {
	const q = `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = $1::regclass
		  AND a.attname = 'embedding'
		  AND NOT a.attisdropped
	`
	var dim int
	if err := c.db.QueryRowContext(ctx, q, c.table).Scan(&dim); err != nil {
		return 0, fmt.Errorf("read embedding dimension: %w", err)
	}
	return dim, nil
}
