package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"flip-analyzer/models"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Source   SourceConfig
	Postgres PostgresConfig
	Match    MatchConfig
	Output   OutputConfig
	Render   RenderConfig
	API      APIConfig

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type SourceConfig struct {
	Kind         string `env:"SOURCE" envDefault:"csv"`
	ListingsCSV  string `env:"LISTINGS_CSV" envDefault:"./data/active.csv"`
	CompsCSV     string `env:"COMPS_CSV" envDefault:"./data/sold.csv"`
	ListingTable string `env:"LISTINGS_TABLE" envDefault:"active_listings"`
	CompTable    string `env:"COMPS_TABLE" envDefault:"sold_comps"`
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"flips"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:""`
	DB       string `env:"POSTGRES_DB" envDefault:"mls"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// PingRetries bounds the connection attempts made at startup.
	PingRetries int `env:"POSTGRES_PING_RETRIES" envDefault:"10"`
}

type MatchConfig struct {
	SameZip          bool     `env:"SAME_ZIP" envDefault:"true"`
	SameCounty       bool     `env:"SAME_COUNTY" envDefault:"false"`
	SameCity         bool     `env:"SAME_CITY" envDefault:"false"`
	SameSub          bool     `env:"SAME_SUB" envDefault:"false"`
	SameBedrooms     bool     `env:"SAME_BEDROOMS" envDefault:"true"`
	BedroomTolerance int      `env:"BEDROOM_TOLERANCE" envDefault:"0"`
	SFRangePct       float64  `env:"SF_RANGE_PCT" envDefault:"15"`
	GroupBy          string   `env:"GROUP_BY" envDefault:"all"`
	Focus            []string `env:"FOCUS" envSeparator:","`
	Selected         []string `env:"SELECTED" envSeparator:","`
}

type OutputConfig struct {
	ResultsCSV   string `env:"RESULTS_CSV" envDefault:"./output/flip_candidates.csv"`
	ReportXLSX   string `env:"REPORT_XLSX" envDefault:"./output/flip_analysis.xlsx"`
	ReportPDFDir string `env:"REPORT_PDF_DIR" envDefault:""`
}

type RenderConfig struct {
	ChromeBin      string `env:"CHROME_BIN" envDefault:""`
	MaxConcurrency int    `env:"MAX_CONCURRENCY" envDefault:"2"`
	MaxRetries     int    `env:"MAX_RETRIES" envDefault:"3"`
	RateLimitMs    int    `env:"RATE_LIMIT_MS" envDefault:"0"`
}

type APIConfig struct {
	Address string `env:"API_ADDRESS" envDefault:":8080"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind != SourceCSV && cfg.Source.Kind != SourcePostgres {
		return nil, fmt.Errorf("SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, cfg.Source.Kind)
	}
	return cfg, nil
}

// Criteria returns the configured comp matching criteria.
func (c *Config) Criteria() models.MatchCriteria {
	return models.MatchCriteria{
		SameZip:          c.Match.SameZip,
		SameCounty:       c.Match.SameCounty,
		SameCity:         c.Match.SameCity,
		SameSub:          c.Match.SameSub,
		SameBedrooms:     c.Match.SameBedrooms,
		BedroomTolerance: c.Match.BedroomTolerance,
		SizeTolerancePct: c.Match.SFRangePct,
	}
}

func (c *Config) Grouping() (models.Grouping, error) {
	return models.ParseGrouping(c.Match.GroupBy)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	p := c.Postgres
	return "host=" + p.Host +
		" port=" + p.Port +
		" user=" + p.User +
		" password=" + p.Password +
		" dbname=" + p.DB +
		" sslmode=" + p.SSLMode
}
