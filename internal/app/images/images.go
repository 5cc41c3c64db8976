// Package images keeps the ordered image references of a listing in step with
// the blob store. Every listing owns the folder property_images/<listing id>/.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"quickhost/internal/domain/shared/apperr"
)

const (
	RootFolder       = "property_images"
	DefaultExtension = ".jpg"
	MaxImageSize     = 5 << 20
)

var (
	ErrUnsupportedImage = errors.New("images: supported formats are jpg, jpeg, png, gif")
	ErrImageTooLarge    = errors.New("images: image must be at most 5MB")
	ErrEmptyImage       = errors.New("images: image is empty")
	ErrStoreMissing     = errors.New("images: blob store not configured")
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// BlobStore is the opaque file storage. Paths are POSIX-style and relative to
// the store's media root. Delete removes a file, or a folder only when it is
// empty; a folder that still holds files is kept and is not an error.
type BlobStore interface {
	Save(ctx context.Context, path string, content []byte) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Upload is a raw image received from the caller.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageInput is one entry of an update payload: either a new upload or a
// reference echoed back by the client. Only uploads are acted on.
type ImageInput struct {
	Upload *Upload
	Ref    string
}

// Folder returns the blob namespace owned by a listing.
func Folder(listingID string) string {
	return path.Join(RootFolder, listingID)
}

// ValidateUploads rejects unsupported formats and oversized files.
func ValidateUploads(uploads []Upload) error {
	var errs apperr.Collector
	for i, u := range uploads {
		field := fmt.Sprintf("internal_images[%d]", i)
		ext := strings.ToLower(path.Ext(u.Filename))
		switch {
		case len(u.Content) == 0:
			errs.Add(field, ErrEmptyImage)
		case ext != "" && !slices.Contains(allowedExtensions, ext):
			errs.Add(field, ErrUnsupportedImage)
		case len(u.Content) > MaxImageSize:
			errs.Add(field, ErrImageTooLarge)
		}
	}
	return errs.Err()
}

// Uploads extracts the raw uploads of an update payload in order.
func Uploads(inputs []ImageInput) []Upload {
	out := make([]Upload, 0, len(inputs))
	for _, in := range inputs {
		if in.Upload != nil {
			out = append(out, *in.Upload)
		}
	}
	return out
}

// SelectCover resolves a caller-supplied index into refs. Anything that is not
// a valid index yields "" (no cover) rather than an error.
func SelectCover(refs []string, index string) string {
	i, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || i < 0 || i >= len(refs) {
		return ""
	}
	return refs[i]
}

// ReassignCover picks the cover after an update. A valid index wins; otherwise
// the current cover is kept while it is still part of refs.
func ReassignCover(refs []string, current, index string) string {
	if cover := SelectCover(refs, index); cover != "" {
		return cover
	}
	if current != "" && slices.Contains(refs, current) {
		return current
	}
	return ""
}

type Manager struct {
	Store   BlobStore
	Logger  *slog.Logger
	NewName func() string
}

// StoreUploads saves each upload under the listing folder and returns the
// references that were persisted, in upload order. A failed save is logged and
// skipped.
func (m *Manager) StoreUploads(ctx context.Context, listingID string, uploads []Upload) ([]string, error) {
	if m.Store == nil {
		if len(uploads) == 0 {
			return []string{}, nil
		}
		return nil, ErrStoreMissing
	}
	refs := make([]string, 0, len(uploads))
	folder := Folder(listingID)
	for _, u := range uploads {
		ref := path.Join(folder, m.filename(u.Filename))
		if err := m.Store.Save(ctx, ref, u.Content); err != nil {
			m.logger().Warn("image save failed, skipping", "listing_id", listingID, "filename", u.Filename, "path", ref, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ApplyUpdate runs the update path for a supplied image list. An empty list
// purges every stored image and returns no references; otherwise new uploads
// are appended to current and echoed references are ignored.
func (m *Manager) ApplyUpdate(ctx context.Context, listingID string, current []string, incoming []ImageInput) ([]string, error) {
	if len(incoming) == 0 {
		if err := m.Purge(ctx, listingID, current); err != nil {
			return nil, err
		}
		return []string{}, nil
	}
	added, err := m.StoreUploads(ctx, listingID, Uploads(incoming))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(current)+len(added))
	out = append(out, current...)
	return append(out, added...), nil
}

// Purge deletes every reference and then the listing folder once it is empty.
// Any failure aborts.
func (m *Manager) Purge(ctx context.Context, listingID string, refs []string) error {
	if m.Store == nil {
		if len(refs) == 0 {
			return nil
		}
		return ErrStoreMissing
	}
	for _, ref := range refs {
		if err := m.Store.Delete(ctx, ref); err != nil {
			return fmt.Errorf("%w: delete %s: %v", apperr.ErrStorage, ref, err)
		}
	}
	folder := Folder(listingID)
	exists, err := m.Store.Exists(ctx, folder)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", apperr.ErrStorage, folder, err)
	}
	if exists {
		if err := m.Store.Delete(ctx, folder); err != nil {
			return fmt.Errorf("%w: delete %s: %v", apperr.ErrStorage, folder, err)
		}
	}
	m.logger().Info("listing images purged", "listing_id", listingID, "count", len(refs))
	return nil
}

// Discard removes blobs stored for a change that was never committed. Failures
// are logged and left behind.
func (m *Manager) Discard(ctx context.Context, listingID string, refs []string) {
	if m.Store == nil || len(refs) == 0 {
		return
	}
	left := 0
	for _, ref := range refs {
		if err := m.Store.Delete(ctx, ref); err != nil {
			left++
			m.logger().Warn("orphaned listing image", "listing_id", listingID, "path", ref, "error", err)
		}
	}
	if err := m.Store.Delete(ctx, Folder(listingID)); err != nil {
		m.logger().Warn("listing folder not removed", "listing_id", listingID, "error", err)
	}
	m.logger().Info("uncommitted listing images discarded", "listing_id", listingID, "count", len(refs)-left)
}

func (m *Manager) filename(original string) string {
	ext := strings.ToLower(path.Ext(original))
	if ext == "" {
		ext = DefaultExtension
	}
	name := uuid.NewString()
	if m.NewName != nil {
		name = m.NewName()
	}
	return name + ext
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.New(slog.DiscardHandler)
}
