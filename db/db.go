package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/prodscan/models"
)

// DB wraps the database connection and provides data access methods
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// SaveExtraction saves an extraction record, replacing any earlier record
// for the same URL.
func (db *DB) SaveExtraction(data *models.Extraction) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := `
		INSERT INTO prodscan_extractions (id, url, data, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(url) DO UPDATE SET
			id = excluded.id,
			data = excluded.data,
			slug = excluded.slug,
			updated_at = excluded.updated_at
	`

	_, err = db.conn.Exec(
		query,
		data.ID,
		data.URL,
		string(jsonData),
		data.Slug,
		data.FetchedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	return nil
}

// GetByID retrieves an extraction by ID. Returns nil without error when no
// record exists.
func (db *DB) GetByID(id string) (*models.Extraction, error) {
	var jsonData string
	err := db.conn.QueryRow("SELECT data FROM prodscan_extractions WHERE id = $1", id).Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction: %w", err)
	}

	return unmarshalExtraction(jsonData)
}

// GetByURL retrieves an extraction by URL. Returns nil without error when no
// record exists.
func (db *DB) GetByURL(url string) (*models.Extraction, error) {
	var jsonData string
	err := db.conn.QueryRow("SELECT data FROM prodscan_extractions WHERE url = $1", url).Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction: %w", err)
	}

	return unmarshalExtraction(jsonData)
}

// List returns extractions ordered by creation time, newest first.
func (db *DB) List(limit, offset int) ([]*models.Extraction, error) {
	rows, err := db.conn.Query(
		"SELECT data FROM prodscan_extractions ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	defer rows.Close()

	var results []*models.Extraction
	for rows.Next() {
		var jsonData string
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		data, err := unmarshalExtraction(jsonData)
		if err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

// DeleteByID deletes an extraction by ID
func (db *DB) DeleteByID(id string) error {
	result, err := db.conn.Exec("DELETE FROM prodscan_extractions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete extraction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no extraction found with id: %s", id)
	}

	return nil
}

// Count returns the total number of stored extractions
func (db *DB) Count() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM prodscan_extractions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count extractions: %w", err)
	}
	return count, nil
}

// GetUser retrieves a user record with preferences. Returns nil without
// error when no record exists.
func (db *DB) GetUser(id string) (*models.User, error) {
	var (
		user         models.User
		productTypes string
		criteria     string
	)
	err := db.conn.QueryRow(`
		SELECT id, expertise, product_types, evaluation_criteria, onboarding_completed, created_at, updated_at
		FROM prodscan_users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Preferences.Expertise,
		&productTypes,
		&criteria,
		&user.OnboardingCompleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := json.Unmarshal([]byte(productTypes), &user.Preferences.ProductTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product types: %w", err)
	}
	if err := json.Unmarshal([]byte(criteria), &user.Preferences.EvaluationCriteria); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation criteria: %w", err)
	}

	return &user, nil
}

// UpsertUserPreferences creates or updates a user's preferences and
// onboarding state.
func (db *DB) UpsertUserPreferences(id string, prefs models.UserPreferences, onboardingCompleted bool) error {
	productTypes, err := json.Marshal(prefs.ProductTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal product types: %w", err)
	}
	criteria, err := json.Marshal(prefs.EvaluationCriteria)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation criteria: %w", err)
	}

	query := `
		INSERT INTO prodscan_users (id, expertise, product_types, evaluation_criteria, onboarding_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT(id) DO UPDATE SET
			expertise = excluded.expertise,
			product_types = excluded.product_types,
			evaluation_criteria = excluded.evaluation_criteria,
			onboarding_completed = excluded.onboarding_completed,
			updated_at = NOW()
	`

	_, err = db.conn.Exec(query, id, prefs.Expertise, string(productTypes), string(criteria), onboardingCompleted)
	if err != nil {
		return fmt.Errorf("failed to upsert user preferences: %w", err)
	}

	return nil
}

func unmarshalExtraction(jsonData string) (*models.Extraction, error) {
	var data models.Extraction
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extraction: %w", err)
	}
	return &data, nil
}
