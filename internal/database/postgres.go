package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ytgrab/ytgrab/internal/config"
	"github.com/ytgrab/ytgrab/internal/models"
)

// PostgresDB backs the download-history repository when HISTORY_DRIVER is
// set to postgres.
type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg *config.PostgresConfig) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}

	if err := db.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func (p *PostgresDB) createTables(ctx context.Context) error {
	createHistoryTable := `
		CREATE TABLE IF NOT EXISTS download_history (
			id UUID PRIMARY KEY,
			video_id VARCHAR(32) NOT NULL,
			title VARCHAR(500) NOT NULL,
			format VARCHAR(16) NOT NULL,
			quality VARCHAR(32) NOT NULL,
			downloaded_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_history_video_id ON download_history(video_id);
		CREATE INDEX IF NOT EXISTS idx_history_downloaded_at ON download_history(downloaded_at DESC);
	`

	if _, err := p.pool.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("failed to create download_history table: %w", err)
	}

	return nil
}

// Append implements history.Repository.
func (p *PostgresDB) Append(ctx context.Context, record models.DownloadHistoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO download_history (id, video_id, title, format, quality, downloaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := p.pool.Exec(ctx, query,
		record.ID, record.VideoID, record.Title, record.Format, record.Quality, record.DownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// List implements history.Repository, newest first.
func (p *PostgresDB) List(ctx context.Context) ([]models.DownloadHistoryRecord, error) {
	query := `
		SELECT id, video_id, title, format, quality, downloaded_at
		FROM download_history
		ORDER BY downloaded_at DESC
		LIMIT 500`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.DownloadHistoryRecord
	for rows.Next() {
		var record models.DownloadHistoryRecord
		if err := rows.Scan(&record.ID, &record.VideoID, &record.Title, &record.Format, &record.Quality, &record.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresDB) Close() {
	p.pool.Close()
}
