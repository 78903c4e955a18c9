package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/retry"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id VARCHAR(36) PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	priority VARCHAR(16) NOT NULL DEFAULT 'normal',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
`

// NewPostgresStore connects to connectionString, retrying the initial ping
// while the database comes up.
func NewPostgresStore(ctx context.Context, connectionString string) (Store, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := retry.Default
	cfg.Name = "postgres ping"
	err = retry.WithRetry(ctx, cfg, func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres message store connected")
	return &sqlStore{db: db, numbered: true, now: time.Now}, nil
}
