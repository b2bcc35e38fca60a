package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/linkforge/shortener/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	suite.Suite
	app    *App
	server *httptest.Server
	e      *httpexpect.Expect
}

func (suite *AppTestSuite) SetupTest() {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})

	a, err := New(context.Background(), cfg, logger)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() {
		a.Close()
	})

	suite.app = a
	suite.server = httptest.NewServer(a.Handler())
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *AppTestSuite) TestShortenResolveStats() {
	const originalURL = "https://example.com/very/long/path"

	resp := suite.e.POST("/api/v1/url/shorten").
		WithJSON(map[string]string{"original_url": originalURL}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object()

	code := resp.Value("short_code").String().Raw()
	suite.Len(code, 6)
	resp.HasValue("short_url", "http://localhost:5000/"+code)

	suite.e.GET("/api/v1/url/{code}/stats", code).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("clicks", 0)

	suite.e.GET("/api/v1/url/{code}", code).
		Expect().
		Status(http.StatusFound).
		Header("Location").IsEqual(originalURL)

	suite.e.GET("/api/v1/url/{code}/stats", code).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("clicks", 1)

	suite.e.GET("/{code}", code).
		Expect().
		Status(http.StatusFound).
		Header("Location").IsEqual(originalURL)

	suite.e.GET("/api/v1/url/{code}/stats", code).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("clicks", 2)

	suite.e.GET("/api/v1/url/ZZZZZZ/stats").
		Expect().
		Status(http.StatusNotFound)
}

func (suite *AppTestSuite) TestList() {
	suite.e.GET("/api/v1/url/list").
		Expect().
		Status(http.StatusOK).
		JSON().Array().IsEmpty()

	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		suite.e.POST("/api/v1/url/shorten").
			WithJSON(map[string]string{"original_url": u}).
			Expect().
			Status(http.StatusCreated)
	}

	arr := suite.e.GET("/api/v1/url/list").
		Expect().
		Status(http.StatusOK).
		JSON().Array()

	arr.Length().IsEqual(2)
	arr.Value(0).Object().HasValue("original_url", "https://example.com/b")
	arr.Value(1).Object().HasValue("original_url", "https://example.com/a")
}

func TestApp(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "mongo"

	a, err := New(context.Background(), cfg, httplog.NewLogger("", httplog.Options{Writer: io.Discard}))

	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.Nil(t, a)
}

func TestNew_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverSQLite
	cfg.SQLite.Path = ":memory:"

	a, err := New(context.Background(), cfg, httplog.NewLogger("", httplog.Options{Writer: io.Discard}))
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Close()
	})

	link, err := a.UseCase.ShortenURL(context.Background(), "https://example.com", cfg.BaseURL)
	require.NoError(t, err)

	url, err := a.UseCase.ResolveShortCode(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.EqualValues(t, 1, url.Clicks)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"

	logger := NewLogger(cfg, io.Discard)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
