package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/domain/enums"
)

var ErrValidation = errors.New("validation error")

const defaultMaxFiles = 10

type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadedRef struct {
	Owner   enums.MediaOwner
	OwnerID int64
	Link    string
}

// Channel sends one file to the storage route reserved for its owner type.
type Channel interface {
	Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, file File) (string, error)
}

// Remover is implemented by channels that can undo a stored object when
// recording its reference fails.
type Remover interface {
	Remove(ctx context.Context, link string) error
}

type BlobStore interface {
	AddBlob(ctx context.Context, activityID int64, blobLink string) error
}

// UploadError reports the first file that failed. Uploaded holds the refs
// stored before it, which stay attached.
type UploadError struct {
	Index    int
	FileName string
	Uploaded []UploadedRef
	Err      error
}

func (e *UploadError) Error() string {
	name := e.FileName
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index+1)
	}
	return fmt.Sprintf("upload %s failed after %d stored: %v", name, len(e.Uploaded), e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Partial reports whether some files were stored before the failure.
func (e *UploadError) Partial() bool {
	return len(e.Uploaded) > 0
}

type Service struct {
	channel  Channel
	blobs    BlobStore
	maxFiles int
	logger   *zap.Logger
}

func NewService(channel Channel, blobs BlobStore, maxFiles int, logger *zap.Logger) *Service {
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		channel:  channel,
		blobs:    blobs,
		maxFiles: maxFiles,
		logger:   logger,
	}
}

// Upload stores files one by one and stops at the first failure. Activity
// refs are attached to the activity as they succeed.
func (s *Service) Upload(ctx context.Context, owner enums.MediaOwner, ownerID int64, files []File) ([]UploadedRef, error) {
	if !owner.Valid() || ownerID <= 0 {
		return nil, fmt.Errorf("invalid media owner %q/%d: %w", owner, ownerID, ErrValidation)
	}
	if len(files) == 0 {
		return []UploadedRef{}, nil
	}
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("too many files: %d > %d: %w", len(files), s.maxFiles, ErrValidation)
	}
	for i, file := range files {
		if file.Body == nil {
			return nil, fmt.Errorf("file %d has no content: %w", i+1, ErrValidation)
		}
	}
	if s.channel == nil {
		return nil, fmt.Errorf("media channel is not configured")
	}
	if owner == enums.MediaOwnerActivity && s.blobs == nil {
		return nil, fmt.Errorf("activity blob store is not configured")
	}

	refs := make([]UploadedRef, 0, len(files))
	for i, file := range files {
		link, err := s.channel.Upload(ctx, owner, ownerID, file)
		if err == nil && strings.TrimSpace(link) == "" {
			err = errors.New("upload returned an empty reference")
		}
		if err == nil && owner == enums.MediaOwnerActivity {
			if err = s.blobs.AddBlob(ctx, ownerID, link); err != nil {
				s.discard(ctx, link)
				err = fmt.Errorf("record activity blob: %w", err)
			}
		}
		if err != nil {
			s.logger.Warn("media upload failed",
				zap.String("owner", string(owner)),
				zap.Int64("owner_id", ownerID),
				zap.Int("index", i),
				zap.String("file", file.Name),
				zap.Int("stored", len(refs)),
				zap.Error(err),
			)
			return refs, &UploadError{Index: i, FileName: file.Name, Uploaded: refs, Err: err}
		}

		refs = append(refs, UploadedRef{Owner: owner, OwnerID: ownerID, Link: link})
	}

	return refs, nil
}

func (s *Service) discard(ctx context.Context, link string) {
	remover, ok := s.channel.(Remover)
	if !ok {
		return
	}
	if err := remover.Remove(ctx, link); err != nil {
		s.logger.Warn("remove orphaned media failed", zap.String("link", link), zap.Error(err))
	}
}
