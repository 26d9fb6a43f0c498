package model

import (
	"time"

	"github.com/cultureradar/backend/internal/domain/enums"
)

const PlaceholderImage = "/placeholder.jpg"

type Activity struct {
	ID          int64
	CreatorID   int64
	Title       string
	Description string
	Email       string
	Phone       string
	Website     string
	ScheduledAt *time.Time
	Location    *Point
	Status      enums.ActivityStatus
	Tags        []string
	Media       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoverImage is the first attached media reference, or the placeholder.
func (a Activity) CoverImage() string {
	if len(a.Media) == 0 || a.Media[0] == "" {
		return PlaceholderImage
	}
	return a.Media[0]
}

func (a Activity) OwnedBy(userID int64) bool {
	return a.CreatorID > 0 && a.CreatorID == userID
}

// SubmitFields is the single atomic write performed by the persisting stage.
// A nil Tags slice keeps the stored tag set; an empty non-nil slice clears it.
type SubmitFields struct {
	ActivityID  int64
	Title       string
	Description string
	ScheduledAt *time.Time
	Location    *Point
	Tags        []string
	Email       string
	Phone       string
	Website     string
}
