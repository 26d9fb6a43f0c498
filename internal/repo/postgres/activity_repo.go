package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
)

var ErrActivityNotFound = errors.New("activity not found")

const untitledActivityTitle = "Untitled Event"

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

const activityColumns = `
	a.id,
	a.creator_id,
	a.title,
	COALESCE(a.description, ''),
	COALESCE(a.email, ''),
	COALESCE(a.phone, ''),
	COALESCE(a.website, ''),
	a.datetime,
	ST_X(a.address::geometry),
	ST_Y(a.address::geometry),
	a.status_id,
	COALESCE((
		SELECT array_agg(t.name ORDER BY t.name)
		FROM activity_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.activity_id = a.id
	), '{}'::text[]),
	COALESCE((
		SELECT array_agg(b.blob_link ORDER BY b.id)
		FROM activity_blobs b
		WHERE b.activity_id = a.id
	), '{}'::text[]),
	a.created_at,
	a.updated_at`

// CreateBare inserts the minimal draft row so the id exists before anything
// else references it.
func (r *ActivityRepo) CreateBare(ctx context.Context, creatorID int64) (int64, error) {
	if creatorID <= 0 {
		return 0, fmt.Errorf("invalid creator id")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var id int64
	if err := r.pool.QueryRow(ctx, `
INSERT INTO activities (
	creator_id,
	title,
	status_id,
	created_at,
	updated_at
) VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id
`, creatorID, untitledActivityTitle, int(enums.ActivityStatusDraft)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert bare activity: %w", err)
	}

	return id, nil
}

// SubmitFull writes every content field, the point and the tag set in one
// transaction. A Draft row moves to Submitted; any other status is kept until
// moderation settles it.
func (r *ActivityRepo) SubmitFull(ctx context.Context, fields model.SubmitFields) error {
	if fields.ActivityID <= 0 {
		return fmt.Errorf("invalid activity id")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		hasPoint := fields.Location != nil
		var lng, lat float64
		if hasPoint {
			lng, lat = fields.Location.Lng, fields.Location.Lat
		}

		result, err := tx.Exec(ctx, `
UPDATE activities SET
	title = $2,
	description = $3,
	datetime = $4,
	address = CASE WHEN $5::boolean THEN ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography ELSE address END,
	email = $8,
	phone = NULLIF($9, ''),
	website = NULLIF($10, ''),
	status_id = CASE WHEN status_id = $11 THEN $12 ELSE status_id END,
	updated_at = NOW()
WHERE id = $1
`,
			fields.ActivityID,
			fields.Title,
			fields.Description,
			fields.ScheduledAt,
			hasPoint,
			lng,
			lat,
			fields.Email,
			fields.Phone,
			fields.Website,
			int(enums.ActivityStatusDraft),
			int(enums.ActivityStatusSubmitted),
		)
		if err != nil {
			return fmt.Errorf("update activity fields: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrActivityNotFound
		}

		if fields.Tags == nil {
			return nil
		}
		return replaceTags(ctx, tx, fields.ActivityID, fields.Tags)
	})
}

func replaceTags(ctx context.Context, tx pgx.Tx, activityID int64, tags []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM activity_tags WHERE activity_id = $1`, activityID); err != nil {
		return fmt.Errorf("clear activity tags: %w", err)
	}

	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var tagID int64
		if err := tx.QueryRow(ctx, `
INSERT INTO tags (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("resolve tag %q: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO activity_tags (activity_id, tag_id) VALUES ($1, $2)
ON CONFLICT (activity_id, tag_id) DO NOTHING
`, activityID, tagID); err != nil {
			return fmt.Errorf("attach tag %q: %w", name, err)
		}
	}

	return nil
}

func (r *ActivityRepo) SetStatus(ctx context.Context, activityID int64, status enums.ActivityStatus) error {
	if activityID <= 0 || !status.Valid() {
		return fmt.Errorf("invalid activity status payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE activities
SET status_id = $2, updated_at = NOW()
WHERE id = $1
`, activityID, int(status))
	if err != nil {
		return fmt.Errorf("update activity status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrActivityNotFound
	}

	return nil
}

func (r *ActivityRepo) Get(ctx context.Context, activityID int64) (model.Activity, error) {
	if activityID <= 0 {
		return model.Activity{}, fmt.Errorf("invalid activity id")
	}
	if r.pool == nil {
		return model.Activity{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `SELECT`+activityColumns+`
FROM activities a
WHERE a.id = $1
`, activityID)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Activity{}, ErrActivityNotFound
		}
		return model.Activity{}, fmt.Errorf("get activity: %w", err)
	}

	return activity, nil
}

func (r *ActivityRepo) ListPublished(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if r.pool == nil {
		return []model.Activity{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT`+activityColumns+`
FROM activities a
WHERE a.status_id = $1
ORDER BY a.datetime ASC NULLS LAST, a.id ASC
LIMIT $2
`, int(enums.ActivityStatusPublished), limit)
	if err != nil {
		return nil, fmt.Errorf("list published activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *ActivityRepo) ListByCreator(ctx context.Context, creatorID int64) ([]model.Activity, error) {
	if creatorID <= 0 {
		return nil, fmt.Errorf("invalid creator id")
	}
	if r.pool == nil {
		return []model.Activity{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT`+activityColumns+`
FROM activities a
WHERE a.creator_id = $1
ORDER BY a.created_at DESC, a.id DESC
`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list creator activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// Delete removes an activity owned by userID. Elevated callers may delete any
// activity. Returns false when nothing matched.
func (r *ActivityRepo) Delete(ctx context.Context, activityID, userID int64, elevated bool) (bool, error) {
	if activityID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid activity delete payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM activities
WHERE id = $1 AND (creator_id = $2 OR $3::boolean)
`, activityID, userID, elevated)
	if err != nil {
		return false, fmt.Errorf("delete activity: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteStaleDrafts removes bare rows that never received their content,
// left behind when a submission failed between creation and persisting.
func (r *ActivityRepo) DeleteStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM activities
WHERE status_id = $1
	AND title = $2
	AND created_at < $3
`, int(enums.ActivityStatusDraft), untitledActivityTitle, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale drafts: %w", err)
	}

	return result.RowsAffected(), nil
}

func collectActivities(rows pgx.Rows) ([]model.Activity, error) {
	items := make([]model.Activity, 0, 32)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		items = append(items, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return items, nil
}

func scanActivity(row pgx.Row) (model.Activity, error) {
	var (
		activity    model.Activity
		scheduledAt *time.Time
		lng, lat    *float64
		statusID    int
	)

	if err := row.Scan(
		&activity.ID,
		&activity.CreatorID,
		&activity.Title,
		&activity.Description,
		&activity.Email,
		&activity.Phone,
		&activity.Website,
		&scheduledAt,
		&lng,
		&lat,
		&statusID,
		&activity.Tags,
		&activity.Media,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return model.Activity{}, err
	}

	activity.ScheduledAt = scheduledAt
	if lng != nil && lat != nil {
		activity.Location = &model.Point{Lng: *lng, Lat: *lat}
	}
	activity.Status = enums.ActivityStatus(statusID)

	return activity, nil
}
