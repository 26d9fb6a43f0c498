package dto

import "time"

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ActivityResponse struct {
	ID          int64          `json:"id"`
	CreatorID   int64          `json:"creator_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone,omitempty"`
	Website     string         `json:"website,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	Location    *PointResponse `json:"location"`
	StatusID    int            `json:"status_id"`
	Status      string         `json:"status"`
	Tags        []string       `json:"tags"`
	Media       []string       `json:"media"`
	Cover       string         `json:"cover"`
}

type ActivityDetailResponse struct {
	ActivityResponse
	LocationLabel    string `json:"location_label"`
	Participants     int    `json:"participants"`
	Likes            int    `json:"likes"`
	CountersDegraded bool   `json:"counters_degraded,omitempty"`
}

type FeedItemResponse struct {
	ActivityResponse
	DistanceKM      *float64 `json:"distance_km,omitempty"`
	WeatherAdvisory bool     `json:"weather_advisory"`
}

type WeatherResponse struct {
	TemperatureC float64 `json:"temperature_c"`
	Code         int     `json:"code"`
	Description  string  `json:"description"`
	Bad          bool    `json:"bad"`
}

type FeedResponse struct {
	Items   []FeedItemResponse `json:"items"`
	Weather *WeatherResponse   `json:"weather,omitempty"`
}

type NoticeResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SubmissionResponse is returned by create and edit once the attempt is
// settled.
type SubmissionResponse struct {
	ActivityID    int64            `json:"activity_id"`
	Outcome       string           `json:"outcome"`
	StatusID      int              `json:"status_id"`
	Justification string           `json:"justification,omitempty"`
	MediaWarning  bool             `json:"media_warning"`
	Media         []string         `json:"media"`
	Notices       []NoticeResponse `json:"notices"`
}

type FieldErrorResponse struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []FieldErrorResponse `json:"fields"`
}

type TrendPointResponse struct {
	Week         string `json:"week"`
	Participants int    `json:"participants"`
	Likes        int    `json:"likes"`
}

type GenderBucketResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StatsResponse struct {
	ActivityID   int64                  `json:"activity_id"`
	Participants int                    `json:"participants"`
	Likes        int                    `json:"likes"`
	LikeRatio    *float64               `json:"like_ratio"`
	Trend        []TrendPointResponse   `json:"trend"`
	Genders      []GenderBucketResponse `json:"genders"`
	Degraded     []string               `json:"degraded"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}
