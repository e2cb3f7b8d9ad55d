package itineraries

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/dbx"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository keeps the payload in a JSONB column.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, it *models.Itinerary) (string, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}

	query := `
		INSERT INTO itineraries (id, user_id, user_email, user_name, destination, dates, travelers,
			food_preferences, interests, budget, pace, itinerary_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.UserID, it.UserEmail, stripNUL(it.UserName),
		stripNUL(it.Trip.Destination), stripNUL(it.Trip.Dates), stripNUL(it.Trip.Travelers),
		stripNUL(it.Trip.FoodPreferences), stripNUL(it.Trip.Interests), stripNUL(it.Trip.Budget),
		stripNUL(it.Trip.Pace), string(stripEscapedNUL(it.Data)), it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return it.ID, nil
}

// ListSummaries pulls only the three payload fields the list view needs.
func (r *PostgresRepository) ListSummaries(ctx context.Context, email string) ([]models.Summary, error) {
	query := `
		SELECT id, destination, dates, travelers,
			jsonb_build_object(
				'destination_name', itinerary_data->'destination_name',
				'personalized_title', itinerary_data->'personalized_title',
				'hero_image_url', itinerary_data->'hero_image_url'
			)::text,
			created_at
		FROM itineraries
		WHERE user_email = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to select itineraries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Summary, 0)
	for rows.Next() {
		var (
			it   models.Itinerary
			data string
		)
		if err := rows.Scan(&it.ID, &it.Trip.Destination, &it.Trip.Dates, &it.Trip.Travelers, &data, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Data = json.RawMessage(data)
		result = append(result, it.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, email, id string) (*models.Itinerary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrInvalidID
	}

	query := `
		SELECT id, user_id, user_email, user_name, destination, dates, travelers,
			food_preferences, interests, budget, pace, itinerary_data::text, created_at, updated_at
		FROM itineraries
		WHERE id = $1 AND user_email = $2
	`
	var (
		it   models.Itinerary
		data string
	)
	err := r.db.QueryRowContext(ctx, query, id, email).Scan(
		&it.ID, &it.UserID, &it.UserEmail, &it.UserName,
		&it.Trip.Destination, &it.Trip.Dates, &it.Trip.Travelers, &it.Trip.FoodPreferences,
		&it.Trip.Interests, &it.Trip.Budget, &it.Trip.Pace,
		&data, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	it.Data = json.RawMessage(data)
	return &it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email, id string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, common.ErrInvalidID
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM itineraries WHERE id = $1 AND user_email = $2`, id, email)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// Postgres text and jsonb reject U+0000.
func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// stripEscapedNUL drops every \u0000 escape from encoded JSON. Escaped
// backslashes are copied as pairs so text such as \\u0000 survives.
func stripEscapedNUL(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u0000`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			out = append(out, data[i])
			continue
		}
		if bytes.HasPrefix(data[i:], []byte(`\u0000`)) {
			i += len(`\u0000`) - 1
			continue
		}
		out = append(out, data[i])
		if i+1 < len(data) {
			out = append(out, data[i+1])
			i++
		}
	}
	return out
}
