package enums

// ActivityStatus ids are shared with the backing store and must not change.
type ActivityStatus int

const (
	ActivityStatusDraft       ActivityStatus = 1
	ActivityStatusSubmitted   ActivityStatus = 2
	ActivityStatusPublished   ActivityStatus = 3
	ActivityStatusHidden      ActivityStatus = 4
	ActivityStatusNeedsReview ActivityStatus = 5
)

func (s ActivityStatus) Valid() bool {
	return s >= ActivityStatusDraft && s <= ActivityStatusNeedsReview
}

func (s ActivityStatus) String() string {
	switch s {
	case ActivityStatusDraft:
		return "draft"
	case ActivityStatusSubmitted:
		return "submitted"
	case ActivityStatusPublished:
		return "published"
	case ActivityStatusHidden:
		return "hidden"
	case ActivityStatusNeedsReview:
		return "needs_review"
	default:
		return "unknown"
	}
}
