package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/dbx"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, name, subscription_status, has_premium_subscription,
		 itineraries_created, free_itinerary_used, chat_messages_used, created_at, upgraded_at, downgraded_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, password_hash, name, subscription_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.SubscriptionStatus, user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) IncrementChatMessages(ctx context.Context, email string) (int, error) {
	query :=
		`UPDATE users SET chat_messages_used = chat_messages_used + 1
		 WHERE email = $1
		 RETURNING chat_messages_used`

	var used int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return used, nil
}

func (r *PostgresRepository) RecordItinerary(ctx context.Context, email string, consumeFree bool) error {
	query :=
		`UPDATE users SET itineraries_created = itineraries_created + 1
		 WHERE email = $1
		 RETURNING itineraries_created`
	missing := common.ErrNotFound

	if consumeFree {
		query =
			`UPDATE users SET free_itinerary_used = TRUE, itineraries_created = itineraries_created + 1
			 WHERE email = $1 AND free_itinerary_used = FALSE
			 RETURNING itineraries_created`
		missing = common.ErrQuotaExhausted
	}

	var created int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return missing
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetSubscription(ctx context.Context, email string, premium bool, at time.Time) (*models.User, error) {
	query :=
		`UPDATE users SET subscription_status = 'free', has_premium_subscription = FALSE, downgraded_at = $2
		 WHERE email = $1
		 RETURNING ` + userColumns
	if premium {
		query =
			`UPDATE users SET subscription_status = 'premium', has_premium_subscription = TRUE, upgraded_at = $2
			 WHERE email = $1
			 RETURNING ` + userColumns
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var upgraded, downgraded sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.SubscriptionStatus,
		&user.HasPremiumSubscription, &user.ItinerariesCreated, &user.FreeItineraryUsed,
		&user.ChatMessagesUsed, &user.CreatedAt, &upgraded, &downgraded)
	if err != nil {
		return nil, err
	}

	if upgraded.Valid {
		user.UpgradedAt = &upgraded.Time
	}
	if downgraded.Valid {
		user.DowngradedAt = &downgraded.Time
	}
	return user, nil
}
