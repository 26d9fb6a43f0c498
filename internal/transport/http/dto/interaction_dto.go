package dto

import "time"

type ParticipationRequest struct {
	Participates *bool `json:"participates"`
}

type LikeRequest struct {
	Liked *bool `json:"liked"`
}

type InteractionResponse struct {
	ActivityID     int64      `json:"activity_id"`
	Participates   bool       `json:"participates"`
	IsLiked        bool       `json:"is_liked"`
	ParticipatedAt *time.Time `json:"participated_at"`
	LastInteracted *time.Time `json:"last_interacted"`
}

type RemoveInteractionResponse struct {
	Removed bool `json:"removed"`
}

type ReverseGeocodeResponse struct {
	Label string `json:"label"`
}
