package moderation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/enums"
)

// Outcome is the interpreted result of one review call. When Fallback is
// set Status is zero and the activity keeps its persisted status.
type Outcome struct {
	Verdict        Verdict
	Status         enums.ActivityStatus
	RemoteStatusID int
	Justification  string
	Fallback       bool
	FailureReason  string
}

type Service struct {
	client Client
	logger *zap.Logger
}

func NewService(client Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// Moderate makes exactly one review call and never returns an error.
// Transport failures and unrecognized verdicts become a fallback outcome.
func (s *Service) Moderate(ctx context.Context, activityID int64) Outcome {
	if s.client == nil {
		return fallback(errors.New("moderation client is not configured"))
	}

	remote, err := s.client.ModerateActivity(ctx, activityID)
	if err != nil {
		s.logger.Warn("moderation call failed", zap.Int64("activity_id", activityID), zap.Error(err))
		return fallback(err)
	}

	verdict := ParseVerdict(remote.Verdict)
	status, ok := verdict.Status()
	if !ok {
		s.logger.Warn("unrecognized moderation verdict",
			zap.Int64("activity_id", activityID),
			zap.String("verdict", remote.Verdict),
		)
		out := fallback(errors.New("unrecognized verdict " + quote(remote.Verdict)))
		out.RemoteStatusID = remote.NewStatusID
		out.Justification = strings.TrimSpace(remote.Justification)
		return out
	}

	if remote.NewStatusID != 0 && remote.NewStatusID != int(status) {
		s.logger.Info("remote status disagrees with verdict",
			zap.Int64("activity_id", activityID),
			zap.String("verdict", string(verdict)),
			zap.Int("remote_status_id", remote.NewStatusID),
			zap.Int("status_id", int(status)),
		)
	}

	return Outcome{
		Verdict:        verdict,
		Status:         status,
		RemoteStatusID: remote.NewStatusID,
		Justification:  strings.TrimSpace(remote.Justification),
	}
}

func fallback(err error) Outcome {
	return Outcome{Fallback: true, FailureReason: err.Error()}
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
