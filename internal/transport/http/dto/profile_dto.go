package dto

type ProfileResponse struct {
	ID       int64  `json:"id"`
	RoleID   int    `json:"role_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	PFPLink  string `json:"pfp_link"`
}

// UpdateProfileRequest fields left empty keep their stored value.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	PFPLink  string `json:"pfp_link"`
}
