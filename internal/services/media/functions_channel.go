package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cultureradar/backend/internal/domain/enums"
	"github.com/cultureradar/backend/internal/infra/functions"
)

type MultipartDoer interface {
	DoMultipart(ctx context.Context, path string, fields map[string]string, part functions.Part, responseBody any) error
}

// FunctionsChannel posts files to the hosted upload functions with the
// caller's own bearer token.
type FunctionsChannel struct {
	client MultipartDoer
}

type uploadResponse struct {
	URL      string `json:"url"`
	BlobLink string `json:"blob_link"`
	Path     string `json:"path"`
}

func NewFunctionsChannel(client MultipartDoer) *FunctionsChannel {
	return &FunctionsChannel{client: client}
}

func (c *FunctionsChannel) Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, file File) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("functions client is nil")
	}

	var path, idField string
	switch owner {
	case enums.MediaOwnerActivity:
		path, idField = "/uploadmedia-activities", "activity_id"
	case enums.MediaOwnerUserPFP:
		path, idField = "/uploadmedia-user-pfp", "user_id"
	default:
		return "", fmt.Errorf("unknown media owner %q: %w", owner, ErrValidation)
	}

	var resp uploadResponse
	err := c.client.DoMultipart(ctx, path, map[string]string{
		idField: strconv.FormatInt(ownerID, 10),
	}, functions.Part{
		FieldName:   "file",
		FileName:    file.Name,
		ContentType: file.ContentType,
		Body:        file.Body,
	}, &resp)
	if err != nil {
		return "", err
	}

	for _, link := range []string{resp.URL, resp.BlobLink, resp.Path} {
		if link = strings.TrimSpace(link); link != "" {
			return link, nil
		}
	}
	return "", fmt.Errorf("upload response carried no reference")
}
