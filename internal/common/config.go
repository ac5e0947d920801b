package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	OCR      OCRConfig      `toml:"ocr"`
	LLM      LLMConfig      `toml:"llm"`
	Parser   ParserConfig   `toml:"parser"`
	Export   ExportConfig   `toml:"export"`
}

// DatabaseConfig holds the processed-document store configuration.
// DSN selects the driver: a postgres:// URL uses pgx, anything else is
// treated as a SQLite path.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxConns        int           `toml:"max_conns"`
	MaxConnLifetime time.Duration `toml:"max_conn_lifetime"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `toml:"tesseract"`      // binary name or absolute path
	TesseractLang string `toml:"tesseract_lang"` // default "tha+eng"
	TessdataDir   string `toml:"tessdata_dir"`
	PSM           int    `toml:"psm"`
	DPI           int    `toml:"dpi"`
}

// LLMConfig holds LLM refinement configuration. An empty APIKey disables
// refinement entirely (the no-op refiner is selected).
type LLMConfig struct {
	Provider    string        `toml:"provider"` // "openai" or "" for disabled
	BaseURL     string        `toml:"base_url"`
	Model       string        `toml:"model"`
	APIKey      string        `toml:"-"`
	Temperature float32       `toml:"temperature"`
	Timeout     time.Duration `toml:"timeout"`
}

// ParserConfig holds extraction and validation thresholds.
type ParserConfig struct {
	AmountTolerance string `toml:"amount_tolerance"` // decimal, default "0.10"
	MinYear         int    `toml:"min_year"`         // earliest plausible issue year
	MaxFutureDays   int    `toml:"max_future_days"`  // issue date may trail processing date by this much
	ProximityRadius int    `toml:"proximity_radius"` // rune distance for anchor tie-breaks
}

// ExportConfig holds spreadsheet export configuration.
type ExportConfig struct {
	OutputDir      string `toml:"output_dir"`
	DocumentSeries string `toml:"document_series"` // default series when none detected
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", defaultSQLitePath()),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "tha+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("TESSERACT_PSM", 6),
			DPI:           getEnvAsInt("OCR_DPI", 300),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Parser: ParserConfig{
			AmountTolerance: getEnv("PARSER_AMOUNT_TOLERANCE", "0.10"),
			MinYear:         getEnvAsInt("PARSER_MIN_YEAR", 2000),
			MaxFutureDays:   getEnvAsInt("PARSER_MAX_FUTURE_DAYS", 30),
			ProximityRadius: getEnvAsInt("PARSER_PROXIMITY_RADIUS", 200),
		},
		Export: ExportConfig{
			OutputDir:      getEnv("EXPORT_DIR", "./Export"),
			DocumentSeries: getEnv("EXPORT_DOCUMENT_SERIES", "AP"),
		},
	}
}

// ApplyFile overlays values from a TOML config file onto c. Environment
// variables already loaded by LoadConfig are overridden by explicit file
// values, matching the CLI's --config flag semantics.
func (c *Config) ApplyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.Provider != "" && c.LLM.Provider != "openai" {
		return NewAppError("CONFIG_ERROR", "unsupported LLM provider: "+c.LLM.Provider, ErrInvalidInput)
	}
	if c.Parser.MinYear <= 0 {
		return NewAppError("CONFIG_ERROR", "PARSER_MIN_YEAR must be positive", ErrInvalidInput)
	}
	return nil
}

func defaultSQLitePath() string {
	return "./ocrdocth.db"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
