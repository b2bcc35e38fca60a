package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linkforge/shortener/internal/entity"
	"github.com/stretchr/testify/suite"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	suite.repo = NewURLRepository()
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("short code exists", func() {
		_, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.Save(suite.ctx, "abc123", "https://other.example.com")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)

		stored, err := suite.repo.RetrieveByShortCode(suite.ctx, "abc123")
		suite.Require().NoError(err)
		suite.Equal("https://example.com", stored.OriginalURL)
	})

	suite.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(suite.ctx)
		cancel()

		url, err := suite.repo.Save(ctx, "abc123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, context.Canceled)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		url, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")

		suite.NoError(err)
		suite.NotNil(url)
		suite.EqualValues(1, url.ID)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Zero(url.Clicks)
		suite.False(url.CreatedAt.IsZero())
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveByShortCode() {
	suite.Run("url not found", func() {
		url, err := suite.repo.RetrieveByShortCode(suite.ctx, "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("returns a copy", func() {
		_, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.RetrieveByShortCode(suite.ctx, "abc123")
		suite.Require().NoError(err)
		url.Clicks = 100

		url, err = suite.repo.RetrieveByShortCode(suite.ctx, "abc123")
		suite.NoError(err)
		suite.Zero(url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicks() {
	suite.Run("url not found", func() {
		url, err := suite.repo.IncrementClicks(suite.ctx, "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		_, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.IncrementClicks(suite.ctx, "abc123")
		suite.NoError(err)
		suite.EqualValues(1, url.Clicks)

		url, err = suite.repo.IncrementClicks(suite.ctx, "abc123")
		suite.NoError(err)
		suite.EqualValues(2, url.Clicks)
	})

	suite.Run("concurrent increments", func() {
		const n = 200

		_, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = suite.repo.IncrementClicks(suite.ctx, "abc123")
			}()
		}
		wg.Wait()

		stats, err := suite.repo.RetrieveStats(suite.ctx, "abc123")
		suite.NoError(err)
		suite.EqualValues(n, stats.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveAll() {
	suite.Run("empty", func() {
		urls, err := suite.repo.RetrieveAll(suite.ctx)

		suite.NoError(err)
		suite.NotNil(urls)
		suite.Empty(urls)
	})

	suite.Run("newest first", func() {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		tick := 0
		suite.repo = NewURLRepository(WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}))

		for _, code := range []string{"aaaaaa", "bbbbbb", "cccccc"} {
			_, err := suite.repo.Save(suite.ctx, code, "https://example.com/"+code)
			suite.Require().NoError(err)
		}

		urls, err := suite.repo.RetrieveAll(suite.ctx)

		suite.NoError(err)
		suite.Require().Len(urls, 3)
		suite.Equal("cccccc", urls[0].ShortCode)
		suite.Equal("bbbbbb", urls[1].ShortCode)
		suite.Equal("aaaaaa", urls[2].ShortCode)
	})

	suite.Run("same timestamp ordered by id", func() {
		fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		suite.repo = NewURLRepository(WithClock(func() time.Time { return fixed }))

		for _, code := range []string{"aaaaaa", "bbbbbb"} {
			_, err := suite.repo.Save(suite.ctx, code, "https://example.com")
			suite.Require().NoError(err)
		}

		urls, err := suite.repo.RetrieveAll(suite.ctx)

		suite.NoError(err)
		suite.Require().Len(urls, 2)
		suite.Equal("bbbbbb", urls[0].ShortCode)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveStats() {
	suite.Run("url not found", func() {
		stats, err := suite.repo.RetrieveStats(suite.ctx, "ZZZZZZ")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(stats)
	})

	suite.Run("success", func() {
		url, err := suite.repo.Save(suite.ctx, "abc123", "https://example.com")
		suite.Require().NoError(err)

		stats, err := suite.repo.RetrieveStats(suite.ctx, "abc123")

		suite.NoError(err)
		suite.Equal(url.Stats(), stats)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
