// Package storage holds the banner collaborator: it accepts an uploaded
// image and hands back an opaque reference string. The marketplace stores
// only the reference.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"event-market/internal/status"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// BannerStore is the upload contract the handlers depend on.
type BannerStore interface {
	Save(file *multipart.FileHeader) (string, error)
	Open(ref string) (io.ReadCloser, error)
}

// LocalBannerStore keeps banners on the local disk under a single directory.
type LocalBannerStore struct {
	Dir string
}

func NewLocalBannerStore(dir string) (*LocalBannerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create banner dir: %w", err)
	}
	return &LocalBannerStore{Dir: dir}, nil
}

// Save stores the uploaded image and returns its reference. Only jpeg and
// png uploads are accepted.
func (s *LocalBannerStore) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", status.Validation("unsupported banner format", map[string]string{
			"banner": "must be a jpeg or png image",
		})
	}

	src, err := file.Open()
	if err != nil {
		return "", status.External(err, "open uploaded banner")
	}
	defer src.Close()

	ref := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.Dir, ref))
	if err != nil {
		return "", status.External(err, "store banner")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", status.External(err, "store banner")
	}
	return ref, nil
}

// Open returns the stored banner for serving. The ref is sanitized so a
// crafted value cannot escape the banner directory.
func (s *LocalBannerStore) Open(ref string) (io.ReadCloser, error) {
	name := filepath.Base(ref)
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, status.NotFound("banner not found")
	}
	return f, nil
}
