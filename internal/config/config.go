package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Sync engine
	SyncDebounce  time.Duration
	SavedDisplay  time.Duration
	SyncedDisplay time.Duration
	ErrorDisplay  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backup worker
	BackupDir  string
	BackupKeep int

	// Remote backend selection
	RemoteBackend string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetbabah.db"),

		SyncDebounce:  getEnvDuration("SYNC_DEBOUNCE", 5*time.Second),
		SavedDisplay:  getEnvDuration("SAVED_DISPLAY", 2*time.Second),
		SyncedDisplay: getEnvDuration("SYNCED_DISPLAY", 2*time.Second),
		ErrorDisplay:  getEnvDuration("ERROR_DISPLAY", 3*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbabah"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_changes"),

		BackupDir:  getEnv("BACKUP_DIR", "./data/backups"),
		BackupKeep: getEnvInt("BACKUP_KEEP", 20),

		RemoteBackend: getEnv("REMOTE_BACKEND", "script"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate remote backend
	validBackends := []string{"script", "sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.RemoteBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid remote backend '%s': must be one of %v", c.RemoteBackend, validBackends))
	}

	// Validate SQLite path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate sync engine timings
	if c.SyncDebounce < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid sync debounce %v: must be at least 100ms", c.SyncDebounce))
	} else if c.SyncDebounce > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync debounce %v: must be at most 1 hour", c.SyncDebounce))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
	}

	// Validate AMQP exchange and queue names if AMQP is configured
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate backup worker configuration
	if c.BackupKeep < 1 {
		errors = append(errors, fmt.Sprintf("invalid backup retention %d: must be at least 1", c.BackupKeep))
	} else if c.BackupKeep > 1000 {
		errors = append(errors, fmt.Sprintf("invalid backup retention %d: must be at most 1000", c.BackupKeep))
	}
	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}

	// Return combined errors
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
