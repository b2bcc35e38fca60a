// Package postgres implements the URL repository on PostgreSQL using sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/linkforge/shortener/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

const urlColumns = `id, short_code, original_url, clicks, created_at`

type urlDB struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		Clicks:      u.Clicks,
		CreatedAt:   u.CreatedAt,
	}
}

type urlStatsDB struct {
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
}

func (s *urlStatsDB) toEntity() *entity.URLStats {
	return &entity.URLStats{
		ShortCode:   s.ShortCode,
		OriginalURL: s.OriginalURL,
		Clicks:      s.Clicks,
		CreatedAt:   s.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url) VALUES ($1, $2) RETURNING ` + urlColumns

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// IncrementClicks bumps the counter and reads the row back in one statement,
// so concurrent resolutions never lose an update.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementClicks"
	const query = `UPDATE urls SET clicks = clicks + 1 WHERE short_code = $1 RETURNING ` + urlColumns

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveAll"
	const query = `SELECT ` + urlColumns + ` FROM urls ORDER BY created_at DESC, id DESC`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from urls table: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) RetrieveStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveStats"
	const query = `SELECT short_code, original_url, clicks, created_at FROM urls WHERE short_code = $1`

	var stats urlStatsDB

	if err := r.db.GetContext(ctx, &stats, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get stats from urls table: %w", op, err)
	}

	return stats.toEntity(), nil
}
