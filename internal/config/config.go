package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Env        string `yaml:"env" validate:"oneof=dev stage prod"`
	BaseURL    string `yaml:"base_url" validate:"required"`
	ShortCode  `yaml:"short_code"`
	Log        `yaml:"log"`
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	SQLite     `yaml:"sqlite"`
}

type ShortCode struct {
	Length     int    `yaml:"length" validate:"min=1,max=32"`
	Alphabet   string `yaml:"alphabet" validate:"omitempty,min=2,max=255"`
	MaxRetries int    `yaml:"max_retries" validate:"min=1"`
}

var defaultShortCode = ShortCode{
	Length:     6,
	MaxRetries: 5,
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

var defaultLog = Log{
	Level: "info",
}

type HTTPServer struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           5000,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Storage struct {
	Driver  string        `yaml:"driver" validate:"oneof=postgres redis sqlite memory"`
	Timeout time.Duration `yaml:"timeout"`
	Migrate bool          `yaml:"migrate"`
}

var defaultStorage = Storage{
	Driver:  DriverPostgres,
	Timeout: 3 * time.Second,
	Migrate: true,
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectRetries  int           `yaml:"connect_retries"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectRetries:  3,
}

// DSN returns a postgres:// URL with user info and query escaped.
func (p *Postgres) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DB,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return dsn.String()
}

type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`

	ConnectRetries int `yaml:"connect_retries"`
}

var defaultRedis = Redis{
	Addr:      "localhost:6379",
	KeyPrefix: "shortener:",

	ConnectRetries: 3,
}

type SQLite struct {
	Path string `yaml:"path"`
}

var defaultSQLite = SQLite{
	Path: "shortener.db",
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	const op = "config.Config.Validate"

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%s: invalid config: %w", op, err)
	}

	if c.Env == EnvProd && (c.HTTPServer.CertFile == "" || c.HTTPServer.KeyFile == "") {
		return fmt.Errorf("%s: invalid config: cert_file and key_file are required in %s", op, EnvProd)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:5000"
	cfg.ShortCode = defaultShortCode
	cfg.Log = defaultLog
	cfg.HTTPServer = defaultHTTPServer
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.SQLite = defaultSQLite
}
