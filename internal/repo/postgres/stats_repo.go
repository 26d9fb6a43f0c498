package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cultureradar/backend/internal/domain/model"
)

// StatsRepo serves read-only aggregate queries over user_activities. Every
// query is filtered by a single activity id.
type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) CountParticipants(ctx context.Context, activityID int64) (int, error) {
	return r.count(ctx, activityID, "participates", "count participants")
}

func (r *StatsRepo) CountLikes(ctx context.Context, activityID int64) (int, error) {
	return r.count(ctx, activityID, "is_liked", "count likes")
}

func (r *StatsRepo) count(ctx context.Context, activityID int64, column, op string) (int, error) {
	if activityID <= 0 {
		return 0, fmt.Errorf("invalid activity id")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	// column is one of two fixed identifiers chosen above.
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM user_activities
WHERE activity_id = $1 AND `+column+` = TRUE
`, activityID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// ListInteractions returns the facet flags and timestamps used for trend
// bucketing.
func (r *StatsRepo) ListInteractions(ctx context.Context, activityID int64) ([]model.Interaction, error) {
	if activityID <= 0 {
		return nil, fmt.Errorf("invalid activity id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, activity_id, participates, is_liked, participated_at, last_interacted, created_at
FROM user_activities
WHERE activity_id = $1
`, activityID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	items := make([]model.Interaction, 0, 64)
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		items = append(items, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	return items, nil
}

func (r *StatsRepo) GenderDistribution(ctx context.Context, activityID int64) ([]model.GenderBucket, error) {
	if activityID <= 0 {
		return nil, fmt.Errorf("invalid activity id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT COALESCE(NULLIF(u.gender, ''), 'unknown') AS gender, COUNT(*)
FROM user_activities ua
JOIN users u ON u.id = ua.user_id
WHERE ua.activity_id = $1 AND ua.participates = TRUE
GROUP BY 1
ORDER BY 2 DESC, 1 ASC
`, activityID)
	if err != nil {
		return nil, fmt.Errorf("gender distribution: %w", err)
	}
	defer rows.Close()

	buckets := make([]model.GenderBucket, 0, 4)
	for rows.Next() {
		var bucket model.GenderBucket
		if err := rows.Scan(&bucket.Name, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan gender bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gender buckets: %w", err)
	}

	return buckets, nil
}
