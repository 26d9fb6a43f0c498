package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BlobRepo struct {
	pool *pgxpool.Pool
}

func NewBlobRepo(pool *pgxpool.Pool) *BlobRepo {
	return &BlobRepo{pool: pool}
}

// AddBlob appends a media reference to an activity (add_activity_blob).
func (r *BlobRepo) AddBlob(ctx context.Context, activityID int64, blobLink string) error {
	blobLink = strings.TrimSpace(blobLink)
	if activityID <= 0 || blobLink == "" {
		return fmt.Errorf("invalid activity blob payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
INSERT INTO activity_blobs (activity_id, blob_link, created_at)
SELECT a.id, $2, NOW()
FROM activities a
WHERE a.id = $1
`, activityID, blobLink)
	if err != nil {
		return fmt.Errorf("insert activity blob: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrActivityNotFound
	}

	return nil
}
