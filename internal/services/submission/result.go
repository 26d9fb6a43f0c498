package submission

import (
	"fmt"
	"strings"

	"github.com/cultureradar/backend/internal/domain/enums"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
	modsvc "github.com/cultureradar/backend/internal/services/moderation"
)

type Outcome string

const (
	OutcomeApproved       Outcome = "approved"
	OutcomeHeld           Outcome = "held"
	OutcomeRejected       Outcome = "rejected"
	OutcomeManualFallback Outcome = "manual_fallback"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	kindCreate = "create"
	kindEdit   = "edit"

	stagePersisting     = "persisting"
	stageMediaAttaching = "media_attaching"
	stageModerating     = "moderating"
	stageSettled        = "settled"
)

const (
	msgApproved         = "Événement publié avec succès."
	msgHeld             = "Votre événement sera vérifié par un modérateur."
	msgRejected         = "Votre événement a été refusé."
	msgManualReview     = "La modération automatique n'a pas abouti : un administrateur vérifiera votre événement."
	msgMediaUnavailable = "L'image n'a pas pu être envoyée et peut ne pas refléter cette soumission."
)

type Notice struct {
	Level   Level
	Message string
}

// Result describes a settled attempt. StatusID is the status stored after
// the attempt and is never below Submitted. On a manual fallback it is the
// status the moderation function reported, when that is a valid one.
type Result struct {
	ActivityID    int64
	Outcome       Outcome
	StatusID      enums.ActivityStatus
	Justification string
	Notices       []Notice
	MediaWarning  bool
	MediaRefs     []mediasvc.UploadedRef
}

func (r *Result) notify(level Level, message string) {
	r.Notices = append(r.Notices, Notice{Level: level, Message: message})
}

func outcomeFor(v modsvc.Verdict) Outcome {
	switch v {
	case modsvc.VerdictApprove:
		return OutcomeApproved
	case modsvc.VerdictHold:
		return OutcomeHeld
	case modsvc.VerdictReject:
		return OutcomeRejected
	default:
		return OutcomeManualFallback
	}
}

func withJustification(message, justification string) string {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return message
	}
	return message + " " + justification
}

func mediaFailureMessage(err *mediasvc.UploadError) string {
	name := err.FileName
	if name == "" {
		name = fmt.Sprintf("n°%d", err.Index+1)
	}
	if err.Partial() {
		return fmt.Sprintf("L'envoi de l'image %s a échoué après %d image(s) enregistrée(s) : les images peuvent ne pas refléter cette soumission.", name, len(err.Uploaded))
	}
	return fmt.Sprintf("L'envoi de l'image %s a échoué : l'image peut ne pas refléter cette soumission.", name)
}
