// internal/app/uploads/uploads.go

// Package uploads stores submission files behind the storage backend
// configured at startup (local disk or S3-compatible).
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/domain/models"
)

type Blob struct {
	store storage.Store
	log   *zap.Logger
}

func New(store storage.Store, logger *zap.Logger) *Blob {
	return &Blob{store: store, log: logger}
}

// Store writes the file under a unique path and returns its reference.
// The path is generated as: submissions/YYYY/MM/uuid-filename
func (b *Blob) Store(ctx context.Context, filename, contentType string, size int64, r io.Reader) (models.FileRef, error) {
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("submissions/%04d/%02d", now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	path := filepath.ToSlash(filepath.Join(dateDir, uniqueName))

	opts := &storage.PutOptions{
		ContentType: contentType,
	}
	if err := b.store.Put(ctx, path, r, opts); err != nil {
		return models.FileRef{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return models.FileRef{
		Path:        path,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// Delete removes a stored file. An already missing file is not an error,
// so cleanup retries stay safe.
func (b *Blob) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := b.store.Delete(ctx, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "not exist") {
			return nil
		}
		return err
	}
	return nil
}

// Resolve returns where the file can be read from: the filesystem path
// for local storage, or a short-lived signed URL otherwise.
func (b *Blob) Resolve(ctx context.Context, ref models.FileRef) (string, error) {
	if local, ok := b.store.(*storage.Local); ok {
		return local.GetFullPath(ref.Path)
	}
	return b.store.PresignedURL(ctx, ref.Path, &storage.PresignOptions{
		Expires:            15 * time.Minute,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", ref.Name),
	})
}

// ServesLocalFiles reports whether Resolve returns filesystem paths that
// should be served directly rather than redirected to.
func (b *Blob) ServesLocalFiles() bool {
	_, ok := b.store.(*storage.Local)
	return ok
}

// sanitizeFilename removes or replaces characters that could be problematic in filenames.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but preserve extension if present
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}

	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
