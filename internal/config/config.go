package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment    string
	LogLevel       zerolog.Level
	HTTPTimeout    time.Duration
	TransitBaseURL string
	NearbyPath     string
	// ArchiveBucket enables the S3 archive of undecodable responses.
	ArchiveBucket string
	S3Endpoint    string
	// Location is a fixed fix for the terminal client; nil means none shared.
	Location *models.Coordinates
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithTransitBaseURL points the fetcher at another host, e.g. a test server.
func WithTransitBaseURL(baseURL string) Option {
	return func(c *Config) {
		if baseURL != "" {
			c.TransitBaseURL = baseURL
		}
	}
}

// WithNearbyPath overrides the GetNearByDepotList path on the transit host.
func WithNearbyPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.NearbyPath = path
		}
	}
}

func WithArchiveBucket(bucket string) Option {
	return func(c *Config) {
		c.ArchiveBucket = bucket
	}
}

func WithS3Endpoint(endpoint string) Option {
	return func(c *Config) {
		c.S3Endpoint = endpoint
	}
}

func WithLocation(lat, lon float64) Option {
	return func(c *Config) {
		c.Location = &models.Coordinates{Latitude: lat, Longitude: lon}
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		HTTPTimeout:    10 * time.Second,
		TransitBaseURL: transit.DefaultBaseURL,
		NearbyPath:     transit.DefaultNearbyPath,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration. Logs go to
// stderr so stdout stays free for the station list.
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Logger()
	}
}

// EnvOptions reads ENV, LOG_LEVEL, HTTP_TIMEOUT, TRANSIT_BASE_URL,
// TRANSIT_NEARBY_PATH, ARCHIVE_BUCKET and S3_ENDPOINT. Unset variables produce
// no option, and neither does an unparsable HTTP_TIMEOUT so a lower layer's
// value survives.
func EnvOptions() []Option {
	var opts []Option
	if v := os.Getenv("ENV"); v != "" {
		opts = append(opts, WithEnvironment(v))
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		opts = append(opts, WithLogLevel(v))
	}
	if timeout, ok := durationEnv("HTTP_TIMEOUT"); ok {
		opts = append(opts, WithHTTPTimeout(timeout))
	}
	if v := os.Getenv("TRANSIT_BASE_URL"); v != "" {
		opts = append(opts, WithTransitBaseURL(v))
	}
	if v := os.Getenv("TRANSIT_NEARBY_PATH"); v != "" {
		opts = append(opts, WithNearbyPath(v))
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		opts = append(opts, WithArchiveBucket(v))
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		opts = append(opts, WithS3Endpoint(v))
	}
	return opts
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return New(EnvOptions()...)
}

// FileConfig is the YAML layout accepted by LoadFile.
type FileConfig struct {
	Environment string `yaml:"environment" validate:"omitempty,oneof=local development test staging production"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	HTTPTimeout string `yaml:"http_timeout"`
	Transit     struct {
		BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
		NearbyPath string `yaml:"nearby_path" validate:"omitempty,startswith=/"`
	} `yaml:"transit"`
	Archive struct {
		Bucket     string `yaml:"bucket"`
		S3Endpoint string `yaml:"s3_endpoint" validate:"omitempty,url"`
	} `yaml:"archive"`
	Location *FileLocation `yaml:"location"`
}

type FileLocation struct {
	Latitude  float64 `yaml:"latitude" validate:"latitude"`
	Longitude float64 `yaml:"longitude" validate:"longitude"`
}

// LoadFile reads and validates a YAML config file and turns it into options.
func LoadFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(fc); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}

	var opts []Option
	if fc.Environment != "" {
		opts = append(opts, WithEnvironment(fc.Environment))
	}
	if fc.LogLevel != "" {
		opts = append(opts, WithLogLevel(fc.LogLevel))
	}
	if fc.HTTPTimeout != "" {
		timeout, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing http_timeout: %w", err)
		}
		opts = append(opts, WithHTTPTimeout(timeout))
	}
	if fc.Transit.BaseURL != "" {
		opts = append(opts, WithTransitBaseURL(fc.Transit.BaseURL))
	}
	if fc.Transit.NearbyPath != "" {
		opts = append(opts, WithNearbyPath(fc.Transit.NearbyPath))
	}
	if fc.Archive.Bucket != "" {
		opts = append(opts, WithArchiveBucket(fc.Archive.Bucket))
	}
	if fc.Archive.S3Endpoint != "" {
		opts = append(opts, WithS3Endpoint(fc.Archive.S3Endpoint))
	}
	if fc.Location != nil {
		opts = append(opts, WithLocation(fc.Location.Latitude, fc.Location.Longitude))
	}

	log.Debug().Str("path", path).Int("options", len(opts)).Msg("Config file loaded")

	return opts, nil
}

func durationEnv(key string) (time.Duration, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("value", value).Msg("Ignoring invalid duration")
		return 0, false
	}
	return duration, true
}
