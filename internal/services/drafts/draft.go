package drafts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cultureradar/backend/internal/pkg/validate"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
)

const (
	MaxTitleRunes       = 100
	MaxDescriptionRunes = 2000
)

var ErrValidation = errors.New("validation error")

// Draft is the working set of mutable event fields. Address is free text
// and only lives until it is geocoded; an empty Address keeps the stored
// point. A nil Tags keeps the stored tag set.
type Draft struct {
	Title       string
	Description string
	Email       string
	Phone       string
	Website     string
	Address     string
	Schedule    *time.Time
	Tags        *[]string
	Files       []mediasvc.File
}

type FieldError struct {
	Field  string
	Reason string
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewDraft() *Draft {
	return &Draft{}
}

// AddTag trims the label and ignores exact duplicates. Case matters:
// "Jazz" and "jazz" are distinct tags.
func (d *Draft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if d.Tags == nil {
		d.Tags = &[]string{}
	}
	for _, existing := range *d.Tags {
		if existing == tag {
			return false
		}
	}
	*d.Tags = append(*d.Tags, tag)
	return true
}

func (d *Draft) RemoveTag(tag string) bool {
	if d.Tags == nil {
		return false
	}
	tags := *d.Tags
	for i, existing := range tags {
		if existing == tag {
			*d.Tags = append(tags[:i:i], tags[i+1:]...)
			return true
		}
	}
	return false
}

// ClearTags marks the tag set for explicit removal, as opposed to leaving
// Tags nil which keeps whatever is stored.
func (d *Draft) ClearTags() {
	d.Tags = &[]string{}
}

// TagList returns nil when tags are untouched.
func (d *Draft) TagList() []string {
	if d.Tags == nil {
		return nil
	}
	out := make([]string, len(*d.Tags))
	copy(out, *d.Tags)
	return out
}

func (d *Draft) Validate() error {
	var fields []FieldError

	switch {
	case !validate.Required(d.Title):
		fields = append(fields, FieldError{Field: "title", Reason: "required"})
	case !validate.MaxRunes(d.Title, MaxTitleRunes):
		fields = append(fields, FieldError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", MaxTitleRunes)})
	}

	switch {
	case !validate.Required(d.Description):
		fields = append(fields, FieldError{Field: "description", Reason: "required"})
	case !validate.MaxRunes(d.Description, MaxDescriptionRunes):
		fields = append(fields, FieldError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionRunes)})
	}

	switch {
	case !validate.Required(d.Email):
		fields = append(fields, FieldError{Field: "email", Reason: "required"})
	case !validate.Email(d.Email):
		fields = append(fields, FieldError{Field: "email", Reason: "invalid address"})
	}

	if d.Schedule == nil {
		fields = append(fields, FieldError{Field: "datetime", Reason: "required"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ParseSchedule combines a "2006-01-02" date and a "15:04" time in loc.
// Both empty means no schedule yet.
func ParseSchedule(date, clock string, loc *time.Location) (*time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" && clock == "" {
		return nil, nil
	}
	if date == "" || clock == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "datetime", Reason: "date and time are both required"}}}
	}
	if loc == nil {
		loc = time.UTC
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "datetime", Reason: "expected YYYY-MM-DD and HH:MM"}}}
	}
	return &at, nil
}
