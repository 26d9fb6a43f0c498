package moderation

import (
	"strings"

	"github.com/cultureradar/backend/internal/domain/enums"
)

type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictHold    Verdict = "hold"
	VerdictReject  Verdict = "reject"
	VerdictUnknown Verdict = ""
)

// ParseVerdict accepts the review function's yes/maybe/no vocabulary and
// the approve/hold/reject aliases, ignoring case and surrounding space.
func ParseVerdict(raw string) Verdict {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "approve", "approved":
		return VerdictApprove
	case "maybe", "hold", "held":
		return VerdictHold
	case "no", "reject", "rejected":
		return VerdictReject
	default:
		return VerdictUnknown
	}
}

// Status maps a verdict to exactly one status. ok is false for an unknown
// verdict.
func (v Verdict) Status() (enums.ActivityStatus, bool) {
	switch v {
	case VerdictApprove:
		return enums.ActivityStatusPublished, true
	case VerdictHold:
		return enums.ActivityStatusNeedsReview, true
	case VerdictReject:
		return enums.ActivityStatusHidden, true
	default:
		return 0, false
	}
}
