// Package sqlite implements the URL repository on SQLite using GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkforge/shortener/internal/entity"
	"gorm.io/gorm"
)

type urlModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ShortCode   string    `gorm:"uniqueIndex;size:32;not null"`
	OriginalURL string    `gorm:"not null"`
	Clicks      int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (urlModel) TableName() string {
	return "urls"
}

func (m *urlModel) toEntity() *entity.URL {
	return &entity.URL{
		ID:          m.ID,
		ShortCode:   m.ShortCode,
		OriginalURL: m.OriginalURL,
		Clicks:      m.Clicks,
		CreatedAt:   m.CreatedAt,
	}
}

func isUniqueViolationError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type URLRepository struct {
	db *gorm.DB
}

func NewURLRepository(db *gorm.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Migrate creates or updates the urls table.
func (r *URLRepository) Migrate(ctx context.Context) error {
	const op = "adapter.repository.sqlite.URLRepository.Migrate"

	if err := r.db.WithContext(ctx).AutoMigrate(&urlModel{}); err != nil {
		return fmt.Errorf("%s: failed to migrate urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Save"

	url := urlModel{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
	}

	if err := r.db.WithContext(ctx).Create(&url).Error; err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveByShortCode"

	url, err := findByShortCode(r.db.WithContext(ctx), shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url.toEntity(), nil
}

// IncrementClicks updates and re-reads the row inside one transaction.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.IncrementClicks"

	var url *urlModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&urlModel{}).
			Where("short_code = ?", shortCode).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to update urls table row: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return entity.ErrURLNotFound
		}

		var err error
		url, err = findByShortCode(tx, shortCode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveAll"

	var rows []urlModel

	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from urls table: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) RetrieveStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveStats"

	var stats entity.URLStats

	res := r.db.WithContext(ctx).
		Model(&urlModel{}).
		Select("short_code", "original_url", "clicks", "created_at").
		Where("short_code = ?", shortCode).
		Limit(1).
		Scan(&stats)
	if res.Error != nil {
		return nil, fmt.Errorf("%s: failed to get stats from urls table: %w", op, res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return &stats, nil
}

func findByShortCode(db *gorm.DB, shortCode string) (*urlModel, error) {
	var url urlModel

	if err := db.Where("short_code = ?", shortCode).First(&url).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrURLNotFound
		}

		return nil, fmt.Errorf("failed to get row from urls table: %w", err)
	}

	return &url, nil
}
