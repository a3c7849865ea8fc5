package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	MaxUploadBytes     int64

	LogLevel string

	// Database
	SQLiteDBPath string

	// AMQP. An empty URL disables publishing; export jobs are then picked up by the poller.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	SheetsBackend         string
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	SheetsDir             string

	// Export
	ExportMaxDays  int
	ExportPDFTitle string

	// Worker. An empty WorkerPort disables the worker's probe and metrics listener.
	WorkerPort         string
	ExportBatchSize    int
	ExportPollInterval time.Duration
	ExportMaxRetries   int

	// Dropdown cache
	CacheTTL time.Duration
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fooddiary.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fooddiary"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_requests"),

		SheetsBackend:         getEnv("SHEETS_BACKEND", "memory"),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		SheetsDir:             getEnv("SHEETS_DIR", ""),

		ExportMaxDays:  getEnvInt("EXPORT_MAX_DAYS", 366),
		ExportPDFTitle: getEnv("EXPORT_PDF_TITLE", "Food diary"),

		WorkerPort:         getEnv("WORKER_PORT", "9091"),
		ExportBatchSize:    getEnvInt("EXPORT_BATCH_SIZE", 5),
		ExportPollInterval: getEnvDuration("EXPORT_POLL_INTERVAL", 30*time.Second),
		ExportMaxRetries:   getEnvInt("EXPORT_MAX_RETRIES", 3),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.WorkerPort != "" {
		if port, err := strconv.Atoi(c.WorkerPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid worker port '%s': must be a number between 1 and 65535", c.WorkerPort))
		} else if c.WorkerPort == c.Port {
			errors = append(errors, fmt.Sprintf("worker port %s collides with the server port", c.WorkerPort))
		}
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	validBackends := []string{"memory", "google"}
	if !slices.Contains(validBackends, c.SheetsBackend) {
		errors = append(errors, fmt.Sprintf("invalid sheets backend '%s': must be one of %v", c.SheetsBackend, validBackends))
	}
	if c.SheetsBackend == "google" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using google sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for google sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.ExportMaxDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid export range limit %d: must be at least 1 day", c.ExportMaxDays))
	}

	if c.ExportBatchSize < 1 || c.ExportBatchSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be between 1 and 100", c.ExportBatchSize))
	}
	if c.ExportPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export poll interval %v: must be at least 1 second", c.ExportPollInterval))
	} else if c.ExportPollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export poll interval %v: must be at most 24 hours", c.ExportPollInterval))
	}
	if c.ExportMaxRetries < 1 {
		errors = append(errors, fmt.Sprintf("invalid export max retries %d: must be at least 1", c.ExportMaxRetries))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
