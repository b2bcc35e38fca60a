package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/linkforge/shortener/internal/entity"
	"github.com/stretchr/testify/suite"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown  error
	columns     []string
	statColumns []string
	createdAt   time.Time
	mock        sqlmock.Sqlmock
	repo        *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.columns = []string{"id", "short_code", "original_url", "clicks", "created_at"}
	suite.statColumns = []string{"short_code", "original_url", "clicks", "created_at"}
	suite.createdAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("short code exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("other postgres error", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(&pgconn.PgError{Code: "23502"})

		url, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")

		suite.Error(err)
		suite.NotErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 0, suite.createdAt)

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnRows(rows)

		url, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")

		suite.NoError(err)
		suite.NotNil(url)
		suite.EqualValues(1, url.ID)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Zero(url.Clicks)
		suite.Equal(suite.createdAt, url.CreatedAt)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveByShortCode() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE short_code`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE short_code`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 4, suite.createdAt)

		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE short_code`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("abc123", url.ShortCode)
		suite.EqualValues(4, url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicks() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.IncrementClicks(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("context deadline", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abc123").
			WillReturnError(context.DeadlineExceeded)

		url, err := suite.repo.IncrementClicks(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, context.DeadlineExceeded)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.IncrementClicks(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 1, suite.createdAt)

		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.IncrementClicks(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.EqualValues(1, url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveAll() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls ORDER BY created_at DESC`).
			WillReturnError(suite.errUnknown)

		urls, err := suite.repo.RetrieveAll(context.Background())

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("empty table", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(suite.columns))

		urls, err := suite.repo.RetrieveAll(context.Background())

		suite.NoError(err)
		suite.NotNil(urls)
		suite.Empty(urls)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(2, "bbbbbb", "https://example.com/b", 0, suite.createdAt.Add(time.Minute)).
			AddRow(1, "aaaaaa", "https://example.com/a", 7, suite.createdAt)

		suite.mock.ExpectQuery(`SELECT (.+) FROM urls ORDER BY created_at DESC`).
			WillReturnRows(rows)

		urls, err := suite.repo.RetrieveAll(context.Background())

		suite.NoError(err)
		suite.Require().Len(urls, 2)
		suite.Equal("bbbbbb", urls[0].ShortCode)
		suite.Equal("aaaaaa", urls[1].ShortCode)
		suite.EqualValues(7, urls[1].Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveStats() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT short_code, original_url, clicks, created_at FROM urls`).
			WithArgs("ZZZZZZ").
			WillReturnError(sql.ErrNoRows)

		stats, err := suite.repo.RetrieveStats(context.Background(), "ZZZZZZ")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(stats)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT short_code, original_url, clicks, created_at FROM urls`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		stats, err := suite.repo.RetrieveStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(stats)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.statColumns).
			AddRow("abc123", "https://example.com", 2, suite.createdAt)

		suite.mock.ExpectQuery(`SELECT short_code, original_url, clicks, created_at FROM urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		stats, err := suite.repo.RetrieveStats(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal(&entity.URLStats{
			ShortCode:   "abc123",
			OriginalURL: "https://example.com",
			Clicks:      2,
			CreatedAt:   suite.createdAt,
		}, stats)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
