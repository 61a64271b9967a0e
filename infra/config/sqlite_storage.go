package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrConfigNotFound is returned when no settings are stored for a provider
var ErrConfigNotFound = errors.New("provider configuration not found")

// SQLiteStorage persists raw provider settings
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "SQLITE_BUSY") && !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms, ...
			backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
			log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteStorage opens (creating when needed) the settings database at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 30000;"); err != nil {
		log.Printf("Warning: Failed to set busy timeout: %v", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS provider_configs (
		provider TEXT PRIMARY KEY,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(query)
	return err
}

// SaveProviderConfig inserts or replaces the settings of a provider
func (s *SQLiteStorage) SaveProviderConfig(providerName string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO provider_configs (provider, config_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider)
		DO UPDATE SET
			config_data = excluded.config_data,
			updated_at = CURRENT_TIMESTAMP
		`

		if _, err := s.db.Exec(query, providerName, string(configJSON)); err != nil {
			return fmt.Errorf("failed to save provider config: %w", err)
		}
		return nil
	}, 3)
}

// LoadProviderConfig loads the settings of one provider
func (s *SQLiteStorage) LoadProviderConfig(providerName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config map[string]string
	err := s.retryOperation(func() error {
		var configJSON string
		err := s.db.QueryRow(`SELECT config_data FROM provider_configs WHERE provider = ?`, providerName).Scan(&configJSON)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrConfigNotFound, providerName)
			}
			return fmt.Errorf("failed to load provider config: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		return nil
	}, 3)

	return config, err
}

// LoadAllProviderConfigs loads every stored provider's settings
func (s *SQLiteStorage) LoadAllProviderConfigs() (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var configs map[string]map[string]string
	err := s.retryOperation(func() error {
		rows, err := s.db.Query(`SELECT provider, config_data FROM provider_configs ORDER BY provider`)
		if err != nil {
			return fmt.Errorf("failed to query provider configs: %w", err)
		}
		defer rows.Close()

		configs = make(map[string]map[string]string)
		for rows.Next() {
			var providerName, configJSON string
			if err := rows.Scan(&providerName, &configJSON); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}

			var config map[string]string
			if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
				log.Printf("Warning: failed to unmarshal config for provider %s: %v", providerName, err)
				continue
			}
			configs[providerName] = config
		}

		return rows.Err()
	}, 3)

	if err != nil {
		return nil, err
	}
	return configs, nil
}

// DeleteProviderConfig removes the stored settings of a provider
func (s *SQLiteStorage) DeleteProviderConfig(providerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		result, err := s.db.Exec(`DELETE FROM provider_configs WHERE provider = ?`, providerName)
		if err != nil {
			return fmt.Errorf("failed to delete provider config: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, providerName)
		}
		return nil
	}, 3)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns database statistics
func (s *SQLiteStorage) GetStats() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]any)

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM provider_configs").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count provider configs: %w", err)
	}
	stats["total_configs"] = total

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats["db_size_bytes"] = fileInfo.Size()
	}
	stats["db_path"] = s.path

	return stats, nil
}
