package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const restaurantColumns = `id, name, address, lat, lon, keywords, review_count,
	total_score, naver_score, sentiment_score, preview, url, created_at, updated_at`

// RestaurantRepository handles restaurant data access.
type RestaurantRepository struct {
	db     DB
	driver string
}

// NewRestaurantRepository creates a new restaurant repository. The driver
// ("sqlite" or "postgres") selects the generated-id retrieval strategy.
func NewRestaurantRepository(db DB, driver string) *RestaurantRepository {
	return &RestaurantRepository{db: db, driver: driver}
}

// Create inserts a new restaurant and fills its generated ID.
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *Restaurant) error {
	restaurant.CreatedAt = time.Now()
	restaurant.UpdatedAt = time.Now()

	query := `
		INSERT INTO restaurants (name, address, lat, lon, keywords, review_count,
			total_score, naver_score, sentiment_score, preview, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	args := []interface{}{
		restaurant.Name, restaurant.Address, restaurant.Lat, restaurant.Lon,
		nullIfEmpty(restaurant.KeywordsRaw), restaurant.ReviewCount,
		restaurant.TotalScore, restaurant.NaverScore, restaurant.SentimentScore,
		restaurant.Preview, restaurant.URL, restaurant.CreatedAt, restaurant.UpdatedAt,
	}

	if r.driver == "postgres" {
		err := r.db.QueryRowContext(ctx, query+` RETURNING id`, args...).Scan(&restaurant.ID)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil && id > 0 {
		restaurant.ID = id
	}
	return nil
}

// GetByID retrieves a restaurant by ID.
func (r *RestaurantRepository) GetByID(ctx context.Context, id int64) (*Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`

	restaurant, err := scanRestaurant(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return restaurant, err
}

// FindAll retrieves all restaurants. Used by the index rebuild.
func (r *RestaurantRepository) FindAll(ctx context.Context) ([]Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// FindByIDs retrieves the restaurants matching the given ids. Missing ids are
// silently absent from the result.
func (r *RestaurantRepository) FindByIDs(ctx context.Context, ids []int64) ([]Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restaurants by ids: %w", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// FindByKeywordSubstring retrieves restaurants whose raw keyword text contains
// the given fragment. Last-resort recall path only.
func (r *RestaurantRepository) FindByKeywordSubstring(ctx context.Context, text string) ([]Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants
		WHERE keywords LIKE '%' || $1 || '%' ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, text)
	if err != nil {
		return nil, fmt.Errorf("query restaurants by keyword substring: %w", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// Count returns the number of stored restaurants.
func (r *RestaurantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRestaurant(row rowScanner) (*Restaurant, error) {
	var (
		restaurant Restaurant
		address    sql.NullString
		keywords   sql.NullString
		preview    sql.NullString
		url        sql.NullString
	)

	err := row.Scan(
		&restaurant.ID, &restaurant.Name, &address, &restaurant.Lat, &restaurant.Lon,
		&keywords, &restaurant.ReviewCount, &restaurant.TotalScore,
		&restaurant.NaverScore, &restaurant.SentimentScore,
		&preview, &url, &restaurant.CreatedAt, &restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	restaurant.Address = address.String
	restaurant.KeywordsRaw = keywords.String
	restaurant.Preview = preview.String
	restaurant.URL = url.String
	return &restaurant, nil
}

func collectRestaurants(rows *sql.Rows) ([]Restaurant, error) {
	var restaurants []Restaurant
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, *restaurant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return restaurants, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
