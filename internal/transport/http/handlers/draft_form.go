package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	draftsvc "github.com/cultureradar/backend/internal/services/drafts"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
)

// Multipart form keys shared by create and edit.
const (
	formEdit  = "edit"
	formDate  = "date"
	formTime  = "time"
	formTags  = "tags"
	formFiles = "files"
)

var textFields = []draftsvc.Field{
	draftsvc.FieldTitle,
	draftsvc.FieldDescription,
	draftsvc.FieldEmail,
	draftsvc.FieldPhone,
	draftsvc.FieldWebsite,
	draftsvc.FieldAddress,
}

var errMalformedForm = errors.New("malformed form")

// draftForm is a parsed create/edit request. Close releases the uploaded
// file handles once the pipeline is done with them.
type draftForm struct {
	form    *multipart.Form
	files   []mediasvc.File
	closers []io.Closer
}

func parseDraftForm(w http.ResponseWriter, r *http.Request, maxSize int64) (*draftForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedForm, err)
	}

	f := &draftForm{form: r.MultipartForm}
	for _, header := range r.MultipartForm.File[formFiles] {
		if header == nil || header.Size <= 0 {
			f.Close()
			return nil, fmt.Errorf("%w: empty file", errMalformedForm)
		}
		file, err := header.Open()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: open %s: %v", errMalformedForm, header.Filename, err)
		}
		f.closers = append(f.closers, file)

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		f.files = append(f.files, mediasvc.File{
			Name:        header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Body:        file,
		})
	}
	return f, nil
}

func (f *draftForm) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

func (f *draftForm) value(key string) string {
	if values := f.form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func (f *draftForm) has(key string) bool {
	_, ok := f.form.Value[key]
	return ok
}

// tags accepts repeated keys as well as one comma separated value.
func (f *draftForm) tags() []string {
	var out []string
	for _, raw := range f.form.Value[formTags] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}

func (f *draftForm) schedule(loc *time.Location) (*time.Time, error) {
	return draftsvc.ParseSchedule(f.value(formDate), f.value(formTime), loc)
}

// draft builds a new event draft. Omitting the tags key leaves tags untouched.
func (f *draftForm) draft(loc *time.Location) (draftsvc.Draft, error) {
	d := draftsvc.NewDraft()
	d.Title = f.value(string(draftsvc.FieldTitle))
	d.Description = f.value(string(draftsvc.FieldDescription))
	d.Email = f.value(string(draftsvc.FieldEmail))
	d.Phone = f.value(string(draftsvc.FieldPhone))
	d.Website = f.value(string(draftsvc.FieldWebsite))
	d.Address = f.value(string(draftsvc.FieldAddress))

	at, err := f.schedule(loc)
	if err != nil {
		return draftsvc.Draft{}, err
	}
	d.Schedule = at

	if f.has(formTags) {
		d.ClearTags()
		for _, tag := range f.tags() {
			d.AddTag(tag)
		}
	}
	d.Files = f.files
	return *d, nil
}

// applyEdits switches on the fields listed under "edit" and copies their
// values into the editor. Fields not listed keep their stored values.
func (f *draftForm) applyEdits(editor *draftsvc.Editor, loc *time.Location) error {
	seen := map[draftsvc.Field]bool{}
	for _, raw := range f.form.Value[formEdit] {
		for _, name := range strings.Split(raw, ",") {
			field := draftsvc.Field(strings.TrimSpace(name))
			if field == "" || seen[field] {
				continue
			}
			seen[field] = true
			if _, err := editor.Toggle(field); err != nil {
				return err
			}
		}
	}

	for _, field := range textFields {
		if !seen[field] {
			continue
		}
		if err := editor.Set(field, f.value(string(field))); err != nil {
			return err
		}
	}

	if seen[draftsvc.FieldDatetime] {
		at, err := f.schedule(loc)
		if err != nil {
			return err
		}
		if err := editor.SetSchedule(at); err != nil {
			return err
		}
	}

	if seen[draftsvc.FieldTags] {
		current := editor.Draft()
		for _, tag := range current.TagList() {
			if _, err := editor.RemoveTag(tag); err != nil {
				return err
			}
		}
		for _, tag := range f.tags() {
			if _, err := editor.AddTag(tag); err != nil {
				return err
			}
		}
	}

	if seen[draftsvc.FieldImage] {
		if err := editor.SetFiles(f.files); err != nil {
			return err
		}
	}
	return nil
}
