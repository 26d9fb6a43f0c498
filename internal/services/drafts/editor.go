package drafts

import (
	"errors"
	"fmt"
	"time"

	"github.com/cultureradar/backend/internal/domain/model"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
)

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldWebsite     Field = "website"
	FieldDatetime    Field = "datetime"
	FieldAddress     Field = "address"
	FieldImage       Field = "image"
	FieldTags        Field = "tags"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrFieldLocked  = errors.New("field edit is not enabled")
)

var editableFields = []Field{
	FieldTitle,
	FieldDescription,
	FieldEmail,
	FieldPhone,
	FieldWebsite,
	FieldDatetime,
	FieldAddress,
	FieldImage,
	FieldTags,
}

// Editor tracks per-field edit toggles over an existing activity. A field
// whose toggle is off always holds its original value.
type Editor struct {
	activityID int64
	original   Draft
	working    Draft
	enabled    map[Field]bool
}

func NewEditor(activity model.Activity) *Editor {
	original := Draft{
		Title:       activity.Title,
		Description: activity.Description,
		Email:       activity.Email,
		Phone:       activity.Phone,
		Website:     activity.Website,
	}
	if activity.ScheduledAt != nil {
		at := *activity.ScheduledAt
		original.Schedule = &at
	}
	tags := append([]string(nil), activity.Tags...)
	original.Tags = &tags

	e := &Editor{
		activityID: activity.ID,
		original:   original,
		enabled:    make(map[Field]bool, len(editableFields)),
	}
	e.working = e.originalValue()
	return e
}

func (e *Editor) ActivityID() int64 {
	return e.activityID
}

// Toggle flips a field's edit toggle and returns the new state. Turning a
// field off restores its original value.
func (e *Editor) Toggle(field Field) (bool, error) {
	if !knownField(field) {
		return false, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	on := !e.enabled[field]
	e.enabled[field] = on
	if !on {
		e.revert(field)
	}
	return on, nil
}

func (e *Editor) Enabled(field Field) bool {
	return e.enabled[field]
}

// Set changes a text field. It fails unless the field's toggle is on.
func (e *Editor) Set(field Field, value string) error {
	if err := e.requireEnabled(field); err != nil {
		return err
	}

	switch field {
	case FieldTitle:
		e.working.Title = value
	case FieldDescription:
		e.working.Description = value
	case FieldEmail:
		e.working.Email = value
	case FieldPhone:
		e.working.Phone = value
	case FieldWebsite:
		e.working.Website = value
	case FieldAddress:
		e.working.Address = value
	default:
		return fmt.Errorf("%w: %s is not a text field", ErrUnknownField, field)
	}
	return nil
}

func (e *Editor) SetSchedule(at *time.Time) error {
	if err := e.requireEnabled(FieldDatetime); err != nil {
		return err
	}
	e.working.Schedule = at
	return nil
}

func (e *Editor) AddTag(tag string) (bool, error) {
	if err := e.requireEnabled(FieldTags); err != nil {
		return false, err
	}
	return e.working.AddTag(tag), nil
}

func (e *Editor) RemoveTag(tag string) (bool, error) {
	if err := e.requireEnabled(FieldTags); err != nil {
		return false, err
	}
	return e.working.RemoveTag(tag), nil
}

func (e *Editor) SetFiles(files []mediasvc.File) error {
	if err := e.requireEnabled(FieldImage); err != nil {
		return err
	}
	e.working.Files = files
	return nil
}

// Value returns the current working value of a text field.
func (e *Editor) Value(field Field) string {
	switch field {
	case FieldTitle:
		return e.working.Title
	case FieldDescription:
		return e.working.Description
	case FieldEmail:
		return e.working.Email
	case FieldPhone:
		return e.working.Phone
	case FieldWebsite:
		return e.working.Website
	case FieldAddress:
		return e.working.Address
	case FieldDatetime:
		if e.working.Schedule == nil {
			return ""
		}
		return e.working.Schedule.Format(time.RFC3339)
	default:
		return ""
	}
}

// Draft returns the draft to submit. Untouched fields carry their original
// values; tags are nil unless the tags toggle is on and files are present
// only when the image toggle is on.
func (e *Editor) Draft() Draft {
	out := e.working
	if e.enabled[FieldTags] {
		tags := e.working.TagList()
		out.Tags = &tags
	} else {
		out.Tags = nil
	}
	if !e.enabled[FieldImage] {
		out.Files = nil
	}
	return out
}

func (e *Editor) requireEnabled(field Field) error {
	if !knownField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if !e.enabled[field] {
		return fmt.Errorf("%w: %s", ErrFieldLocked, field)
	}
	return nil
}

func (e *Editor) revert(field Field) {
	original := e.originalValue()
	switch field {
	case FieldTitle:
		e.working.Title = original.Title
	case FieldDescription:
		e.working.Description = original.Description
	case FieldEmail:
		e.working.Email = original.Email
	case FieldPhone:
		e.working.Phone = original.Phone
	case FieldWebsite:
		e.working.Website = original.Website
	case FieldDatetime:
		e.working.Schedule = original.Schedule
	case FieldAddress:
		e.working.Address = ""
	case FieldImage:
		e.working.Files = nil
	case FieldTags:
		e.working.Tags = original.Tags
	}
}

// originalValue returns a deep copy so working edits never alias it.
func (e *Editor) originalValue() Draft {
	out := e.original
	if e.original.Schedule != nil {
		at := *e.original.Schedule
		out.Schedule = &at
	}
	if e.original.Tags != nil {
		tags := append([]string(nil), (*e.original.Tags)...)
		out.Tags = &tags
	}
	return out
}

func knownField(field Field) bool {
	for _, f := range editableFields {
		if f == field {
			return true
		}
	}
	return false
}
