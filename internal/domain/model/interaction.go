package model

import "time"

type Interaction struct {
	UserID         int64
	ActivityID     int64
	Participates   bool
	IsLiked        bool
	ParticipatedAt *time.Time
	LastInteracted *time.Time
	CreatedAt      time.Time
}

type TrendPoint struct {
	Week         time.Time
	Participants int
	Likes        int
}

type GenderBucket struct {
	Name  string
	Count int
}
