package model

import "github.com/cultureradar/backend/internal/domain/enums"

type User struct {
	ID       int64
	RoleID   enums.RoleID
	Username string
	Email    string
	Phone    string
	PFPLink  string
	Gender   string
}

type ProfileUpdate struct {
	UserID   int64
	Username string
	Email    string
	Phone    string
	PFPLink  string
}
