package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		user   model.User
		roleID int
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	role_id,
	COALESCE(username, ''),
	COALESCE(email, ''),
	COALESCE(phone, ''),
	COALESCE(pfp_link, ''),
	COALESCE(gender, '')
FROM users
WHERE id = $1
`, userID).Scan(
		&user.ID,
		&roleID,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.PFPLink,
		&user.Gender,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	user.RoleID = enums.RoleID(roleID)

	return user, nil
}

// UpdateProfile mirrors update_user_profile: empty values keep the stored
// column.
func (r *UserRepo) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	if update.UserID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users SET
	username = COALESCE(NULLIF($2, ''), username),
	email = COALESCE(NULLIF($3, ''), email),
	phone = COALESCE(NULLIF($4, ''), phone),
	pfp_link = COALESCE(NULLIF($5, ''), pfp_link)
WHERE id = $1
`, update.UserID, update.Username, update.Email, update.Phone, update.PFPLink)
	if err != nil {
		return model.User{}, fmt.Errorf("update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.User{}, ErrUserNotFound
	}

	return r.Get(ctx, update.UserID)
}
