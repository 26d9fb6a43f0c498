package drafts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/domain/model"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
)

func publishedConcert() model.Activity {
	at := time.Date(2025, 6, 21, 20, 30, 0, 0, time.UTC)
	return model.Activity{
		ID:          11,
		CreatorID:   2,
		Title:       "Concert A",
		Description: "Fête de la musique",
		Email:       "orga@example.fr",
		Phone:       "0102030405",
		Website:     "https://example.fr",
		ScheduledAt: &at,
		Location:    &model.Point{Lng: 2.35, Lat: 48.85},
		Status:      enums.ActivityStatusPublished,
		Tags:        []string{"musique", "gratuit"},
	}
}

func TestToggleOffRevertsToOriginal(t *testing.T) {
	editor := NewEditor(publishedConcert())

	if on, err := editor.Toggle(FieldTitle); err != nil || !on {
		t.Fatalf("enable title: on=%v err=%v", on, err)
	}
	if err := editor.Set(FieldTitle, "Concert B"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if got := editor.Value(FieldTitle); got != "Concert B" {
		t.Fatalf("unexpected working title: %q", got)
	}

	if on, err := editor.Toggle(FieldTitle); err != nil || on {
		t.Fatalf("disable title: on=%v err=%v", on, err)
	}
	if got := editor.Value(FieldTitle); got != "Concert A" {
		t.Fatalf("title must revert to original: got %q want %q", got, "Concert A")
	}
}

func TestSetRequiresEnabledToggle(t *testing.T) {
	editor := NewEditor(publishedConcert())

	if err := editor.Set(FieldDescription, "changed"); !errors.Is(err, ErrFieldLocked) {
		t.Fatalf("expected ErrFieldLocked, got %v", err)
	}
	if _, err := editor.Toggle(Field("price")); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := editor.AddTag("jazz"); !errors.Is(err, ErrFieldLocked) {
		t.Fatalf("expected ErrFieldLocked for tags, got %v", err)
	}
}

func TestEditorDraftCarriesOriginalsForUntouchedFields(t *testing.T) {
	activity := publishedConcert()
	editor := NewEditor(activity)

	if _, err := editor.Toggle(FieldDescription); err != nil {
		t.Fatalf("toggle description: %v", err)
	}
	if err := editor.Set(FieldDescription, "Nouvelle description"); err != nil {
		t.Fatalf("set description: %v", err)
	}

	draft := editor.Draft()
	if draft.Description != "Nouvelle description" {
		t.Fatalf("unexpected description: %q", draft.Description)
	}
	if draft.Title != activity.Title || draft.Email != activity.Email || draft.Phone != activity.Phone || draft.Website != activity.Website {
		t.Fatalf("untouched contact fields changed: %+v", draft)
	}
	if draft.Schedule == nil || !draft.Schedule.Equal(*activity.ScheduledAt) {
		t.Fatalf("schedule not carried over: %v", draft.Schedule)
	}
	if draft.Address != "" {
		t.Fatalf("address must stay empty to keep the stored point, got %q", draft.Address)
	}
	if draft.Tags != nil {
		t.Fatalf("tags must be omitted when not edited, got %v", *draft.Tags)
	}
	if draft.Files != nil {
		t.Fatalf("files must be omitted when image toggle is off")
	}
}

func TestEditorTagsToggle(t *testing.T) {
	editor := NewEditor(publishedConcert())

	if _, err := editor.Toggle(FieldTags); err != nil {
		t.Fatalf("toggle tags: %v", err)
	}
	if _, err := editor.RemoveTag("gratuit"); err != nil {
		t.Fatalf("remove tag: %v", err)
	}
	if _, err := editor.AddTag("plein air"); err != nil {
		t.Fatalf("add tag: %v", err)
	}

	draft := editor.Draft()
	if draft.Tags == nil || strings.Join(*draft.Tags, ",") != "musique,plein air" {
		t.Fatalf("unexpected edited tags: %v", draft.Tags)
	}

	if _, err := editor.Toggle(FieldTags); err != nil {
		t.Fatalf("toggle tags off: %v", err)
	}
	if editor.Draft().Tags != nil {
		t.Fatalf("tags must be omitted again after toggle off")
	}

	// Re-enabling starts from the original set, not the discarded edit.
	if _, err := editor.Toggle(FieldTags); err != nil {
		t.Fatalf("toggle tags on again: %v", err)
	}
	if got := strings.Join(*editor.Draft().Tags, ","); got != "musique,gratuit" {
		t.Fatalf("unexpected tags after re-enable: %q", got)
	}
}

func TestEditorImageToggleDropsFiles(t *testing.T) {
	editor := NewEditor(publishedConcert())

	if err := editor.SetFiles([]mediasvc.File{{Name: "a.jpg", Body: strings.NewReader("x")}}); !errors.Is(err, ErrFieldLocked) {
		t.Fatalf("expected ErrFieldLocked, got %v", err)
	}
	if _, err := editor.Toggle(FieldImage); err != nil {
		t.Fatalf("toggle image: %v", err)
	}
	if err := editor.SetFiles([]mediasvc.File{{Name: "a.jpg", Body: strings.NewReader("x")}}); err != nil {
		t.Fatalf("set files: %v", err)
	}
	if len(editor.Draft().Files) != 1 {
		t.Fatalf("expected files in draft")
	}
	if _, err := editor.Toggle(FieldImage); err != nil {
		t.Fatalf("toggle image off: %v", err)
	}
	if len(editor.Draft().Files) != 0 {
		t.Fatalf("expected files dropped after toggle off")
	}
}

func TestAddTagDedupesCaseSensitively(t *testing.T) {
	draft := NewDraft()

	if draft.TagList() != nil {
		t.Fatalf("fresh draft must not carry a tag set")
	}

	for _, tag := range []string{" Jazz ", "Jazz", "jazz", "", "  "} {
		draft.AddTag(tag)
	}

	if got := strings.Join(draft.TagList(), ","); got != "Jazz,jazz" {
		t.Fatalf("unexpected tags: %q", got)
	}

	draft.ClearTags()
	if tags := draft.TagList(); tags == nil || len(tags) != 0 {
		t.Fatalf("explicit clear must yield an empty non-nil set, got %v", tags)
	}
}

func TestValidate(t *testing.T) {
	at := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	valid := func() *Draft {
		return &Draft{
			Title:       "Jazz Night",
			Description: "Live jazz",
			Email:       "club@example.fr",
			Schedule:    &at,
		}
	}

	testCases := []struct {
		name   string
		mutate func(d *Draft)
		fields []string
	}{
		{name: "valid", mutate: func(*Draft) {}},
		{name: "missing title", mutate: func(d *Draft) { d.Title = " " }, fields: []string{"title"}},
		{name: "long title", mutate: func(d *Draft) { d.Title = strings.Repeat("a", 101) }, fields: []string{"title"}},
		{name: "long description", mutate: func(d *Draft) { d.Description = strings.Repeat("é", 2001) }, fields: []string{"description"}},
		{name: "bad email", mutate: func(d *Draft) { d.Email = "club-at-example" }, fields: []string{"email"}},
		{name: "missing schedule", mutate: func(d *Draft) { d.Schedule = nil }, fields: []string{"datetime"}},
		{
			name:   "everything missing",
			mutate: func(d *Draft) { *d = Draft{} },
			fields: []string{"title", "description", "email", "datetime"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(d)

			err := d.Validate()
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			if strings.Join(got, ",") != strings.Join(tc.fields, ",") {
				t.Fatalf("unexpected fields: got %v want %v", got, tc.fields)
			}
		})
	}
}

func TestParseSchedule(t *testing.T) {
	at, err := ParseSchedule("2025-07-14", "21:30", time.UTC)
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	if want := time.Date(2025, 7, 14, 21, 30, 0, 0, time.UTC); !at.Equal(want) {
		t.Fatalf("unexpected schedule: got %v want %v", at, want)
	}

	if at, err := ParseSchedule("", "", nil); err != nil || at != nil {
		t.Fatalf("empty input must yield no schedule: %v %v", at, err)
	}
	if _, err := ParseSchedule("2025-07-14", "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing time, got %v", err)
	}
	if _, err := ParseSchedule("14/07/2025", "21:30", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}
}
