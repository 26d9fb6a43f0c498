package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cultureradar/backend/internal/domain/model"
)

// InteractionRepo owns user_activities. Every statement is keyed by the full
// (user_id, activity_id) pair.
type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

func (r *InteractionRepo) SetParticipation(ctx context.Context, userID, activityID int64, participates bool) (model.Interaction, error) {
	if userID <= 0 || activityID <= 0 {
		return model.Interaction{}, fmt.Errorf("invalid participation payload")
	}
	if r.pool == nil {
		return model.Interaction{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO user_activities (
	user_id,
	activity_id,
	participates,
	is_liked,
	participated_at,
	created_at
) VALUES ($1, $2, $3, FALSE, CASE WHEN $3 THEN NOW() END, NOW())
ON CONFLICT (user_id, activity_id) DO UPDATE SET
	participates = EXCLUDED.participates,
	participated_at = CASE
		WHEN EXCLUDED.participates AND NOT user_activities.participates THEN NOW()
		ELSE user_activities.participated_at
	END
RETURNING user_id, activity_id, participates, is_liked, participated_at, last_interacted, created_at
`, userID, activityID, participates)

	interaction, err := scanInteraction(row)
	if err != nil {
		if isMissingParent(err) {
			return model.Interaction{}, ErrActivityNotFound
		}
		return model.Interaction{}, fmt.Errorf("upsert participation: %w", err)
	}
	return interaction, nil
}

func (r *InteractionRepo) SetLiked(ctx context.Context, userID, activityID int64, liked bool) (model.Interaction, error) {
	if userID <= 0 || activityID <= 0 {
		return model.Interaction{}, fmt.Errorf("invalid like payload")
	}
	if r.pool == nil {
		return model.Interaction{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO user_activities (
	user_id,
	activity_id,
	participates,
	is_liked,
	last_interacted,
	created_at
) VALUES ($1, $2, FALSE, $3, CASE WHEN $3 THEN NOW() END, NOW())
ON CONFLICT (user_id, activity_id) DO UPDATE SET
	is_liked = EXCLUDED.is_liked,
	last_interacted = CASE
		WHEN user_activities.is_liked <> EXCLUDED.is_liked THEN NOW()
		ELSE user_activities.last_interacted
	END
RETURNING user_id, activity_id, participates, is_liked, participated_at, last_interacted, created_at
`, userID, activityID, liked)

	interaction, err := scanInteraction(row)
	if err != nil {
		if isMissingParent(err) {
			return model.Interaction{}, ErrActivityNotFound
		}
		return model.Interaction{}, fmt.Errorf("upsert like: %w", err)
	}
	return interaction, nil
}

func (r *InteractionRepo) Get(ctx context.Context, userID, activityID int64) (model.Interaction, bool, error) {
	if userID <= 0 || activityID <= 0 {
		return model.Interaction{}, false, fmt.Errorf("invalid interaction lookup payload")
	}
	if r.pool == nil {
		return model.Interaction{}, false, nil
	}

	row := r.pool.QueryRow(ctx, `
SELECT user_id, activity_id, participates, is_liked, participated_at, last_interacted, created_at
FROM user_activities
WHERE user_id = $1 AND activity_id = $2
`, userID, activityID)

	interaction, err := scanInteraction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Interaction{}, false, nil
		}
		return model.Interaction{}, false, fmt.Errorf("get interaction: %w", err)
	}
	return interaction, true, nil
}

func (r *InteractionRepo) Remove(ctx context.Context, userID, activityID int64) (bool, error) {
	if userID <= 0 || activityID <= 0 {
		return false, fmt.Errorf("invalid interaction delete payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM user_activities
WHERE user_id = $1 AND activity_id = $2
`, userID, activityID)
	if err != nil {
		return false, fmt.Errorf("delete interaction: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func scanInteraction(row pgx.Row) (model.Interaction, error) {
	var interaction model.Interaction
	err := row.Scan(
		&interaction.UserID,
		&interaction.ActivityID,
		&interaction.Participates,
		&interaction.IsLiked,
		&interaction.ParticipatedAt,
		&interaction.LastInteracted,
		&interaction.CreatedAt,
	)
	return interaction, err
}
