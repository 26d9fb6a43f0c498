package moderation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cultureradar/backend/internal/infra/functions"
)

// RemoteVerdict is the raw reply of the review function.
type RemoteVerdict struct {
	NewStatusID   int    `json:"new_status_id"`
	Verdict       string `json:"verdict"`
	Justification string `json:"justification"`
}

type Client interface {
	ModerateActivity(ctx context.Context, activityID int64) (RemoteVerdict, error)
}

type JSONDoer interface {
	DoJSON(ctx context.Context, method, path string, requestBody, responseBody any) error
}

type FunctionsClient struct {
	client JSONDoer
}

func NewFunctionsClient(client JSONDoer) *FunctionsClient {
	return &FunctionsClient{client: client}
}

func (c *FunctionsClient) ModerateActivity(ctx context.Context, activityID int64) (RemoteVerdict, error) {
	if c.client == nil {
		return RemoteVerdict{}, fmt.Errorf("functions client is nil")
	}

	var out RemoteVerdict
	if err := c.client.DoJSON(ctx, http.MethodPost, "/moderate-activity", map[string]int64{
		"activity_id": activityID,
	}, &out); err != nil {
		return RemoteVerdict{}, fmt.Errorf("moderate activity %d: %w", activityID, err)
	}
	return out, nil
}

var _ Client = (*FunctionsClient)(nil)
var _ JSONDoer = (*functions.Client)(nil)
