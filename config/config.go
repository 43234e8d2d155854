package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"cafe"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"cafe123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"cafe"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxRetries       int    `envconfig:"MAX_RETRIES" default:"5" validate:"gte=1"`

	SQLitePath string   `envconfig:"CAFE_SQLITE_PATH" default:"./output/cafe.db"`
	Sinks      []string `envconfig:"CAFE_SINKS" default:"csv" validate:"dive,oneof=postgres sqlite csv none"`
	OutputDir  string   `envconfig:"CAFE_OUTPUT_DIR" default:"./output" validate:"required"`
	DryRun     bool     `envconfig:"CAFE_DRY_RUN" default:"false"`

	LogLevel        string `envconfig:"CAFE_LOG_LEVEL" default:"info"`
	LogFormat       string `envconfig:"CAFE_LOG_FORMAT" default:"console" validate:"oneof=console json"`
	MetricsTextfile string `envconfig:"CAFE_METRICS_TEXTFILE"`

	Transform TransformConfig
}

// TransformConfig is the configuration object consumed by the extract and
// transform stages.
type TransformConfig struct {
	// DefaultHeaders names the raw columns in file order: date/time, branch,
	// customer name, product, price, payment type, card number.
	DefaultHeaders     []string `envconfig:"CAFE_DEFAULT_HEADERS" default:"Date/Time,Branch,Customer Name,Product,Price,Payment Type,Card Number" validate:"len=7,dive,required"`
	DefaultQty         string   `envconfig:"CAFE_DEFAULT_QTY" default:"1" validate:"required,numeric"`
	KnownSizes         []string `envconfig:"CAFE_KNOWN_SIZES" default:"small,regular,medium,large" validate:"dive,required"`
	RequiredFields     []string `envconfig:"CAFE_REQUIRED_FIELDS" default:"product,qty,price,branch,payment_type,date_time" validate:"dive,oneof=product qty price branch payment_type date_time"`
	SensitiveFields    []string `envconfig:"CAFE_SENSITIVE_FIELDS" default:"customer_name,card_number"`
	HeaderMayBePresent bool     `envconfig:"CAFE_HEADER_MAY_BE_PRESENT" default:"true"`
}

// Load reads the .env file and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in struct tags, then rejects
// required fields that redaction would always clear.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return c.Transform.checkRequiredNotSensitive()
}

func (t TransformConfig) checkRequiredNotSensitive() error {
	sensitive := make(map[string]struct{}, len(t.SensitiveFields))
	for _, f := range t.SensitiveFields {
		sensitive[fieldName(f)] = struct{}{}
	}
	for _, f := range t.RequiredFields {
		if _, ok := sensitive[fieldName(f)]; ok {
			return fmt.Errorf("config: invalid: required field %q is also redacted as sensitive", f)
		}
	}
	return nil
}

var fieldNameReplacer = strings.NewReplacer(" ", "_", "/", "_", "-", "_")

// fieldName folds "Card Number" and "card_number" onto the same key.
func fieldName(name string) string {
	return fieldNameReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// DefaultTransformConfig returns the transform settings used when no
// environment overrides are present.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		DefaultHeaders:     []string{"Date/Time", "Branch", "Customer Name", "Product", "Price", "Payment Type", "Card Number"},
		DefaultQty:         "1",
		KnownSizes:         []string{"small", "regular", "medium", "large"},
		RequiredFields:     []string{"product", "qty", "price", "branch", "payment_type", "date_time"},
		SensitiveFields:    []string{"customer_name", "card_number"},
		HeaderMayBePresent: true,
	}
}

// SizeSet returns the recognised size vocabulary, lower-cased.
func (t TransformConfig) SizeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.KnownSizes))
	for _, s := range t.KnownSizes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// HasSink reports whether the named sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// ActiveSinks returns the configured sinks without the "none" placeholder.
func (c *Config) ActiveSinks() []string {
	var out []string
	for _, s := range c.Sinks {
		if !strings.EqualFold(s, "none") {
			out = append(out, s)
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
