package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUploadTooLarge is returned when a file exceeds the configured size.
	ErrUploadTooLarge = errors.New("file size exceeds limit")
	// ErrUploadType is returned when the file extension is not allowed.
	ErrUploadType = errors.New("file type not allowed")
)

// ImageExtensions are accepted for thread images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// AttachmentExtensions are accepted for reply attachments.
var AttachmentExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".pdf", ".txt", ".zip", ".doc", ".docx"}

// URLPrefix is the public path uploads are served under.
const URLPrefix = "/uploads"

// StoredFile describes a file written by UploadStore.
type StoredFile struct {
	URL          string
	OriginalName string
	Path         string
}

// UploadStore writes uploaded files below Dir, refusing anything larger than MaxBytes.
type UploadStore struct {
	Dir      string
	MaxBytes int64
}

// NewUploadStore creates an UploadStore.
func NewUploadStore(dir string, maxBytes int64) *UploadStore {
	return &UploadStore{Dir: dir, MaxBytes: maxBytes}
}

// Save validates and stores header under subdir. Nothing is left on disk when it fails.
func (s *UploadStore) Save(header *multipart.FileHeader, subdir string, allowed []string) (*StoredFile, error) {
	original := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(original))
	if !containsFold(allowed, ext) {
		return nil, fmt.Errorf("%w: %q", ErrUploadType, ext)
	}
	if header.Size > s.MaxBytes {
		return nil, ErrUploadTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	// declared sizes can lie, so the copy itself is bounded too
	written, err := io.Copy(out, &io.LimitedReader{R: src, N: s.MaxBytes + 1})
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if written > s.MaxBytes {
		_ = os.Remove(dst)
		return nil, ErrUploadTooLarge
	}

	return &StoredFile{
		URL:          path.Join(URLPrefix, filepath.ToSlash(subdir), name),
		OriginalName: original,
		Path:         dst,
	}, nil
}

// Remove deletes the file behind a public URL produced by Save. Unknown URLs are ignored.
func (s *UploadStore) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix+"/") {
		return nil
	}
	rel := filepath.FromSlash(strings.TrimPrefix(url, URLPrefix+"/"))
	if strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func containsFold(list []string, v string) bool {
	for _, it := range list {
		if strings.EqualFold(it, v) {
			return true
		}
	}
	return false
}
