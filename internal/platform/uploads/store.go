// Package uploads stores proof files on local disk under a configured
// root, one subdirectory per deliverable.
package uploads

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/config"
)

var allowedMime = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"application/pdf": ".pdf",
	"video/mp4":       ".mp4",
}

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
	".mp4":  true,
}

type Store struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

func NewStore(cfg config.UploadsConfig) (*Store, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, maxBytes: cfg.MaxBytes(), now: time.Now}, nil
}

// SafeName strips any path components from a client-supplied filename.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "proof"
	}
	return name
}

// Save validates type and size, then writes the file under
// root/<deliverableID>/ with a random name. Returns the path relative to
// the root for persistence.
func (s *Store) Save(deliverableID, fileName, mimeType string, r io.Reader) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if _, ok := allowedMime[mimeType]; !ok {
		return "", fmt.Errorf("%w: unsupported file type %q", errors.ErrInvalidStatus, mimeType)
	}
	ext := strings.ToLower(filepath.Ext(SafeName(fileName)))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: unsupported file extension %q", errors.ErrInvalidStatus, ext)
	}

	subdir := filepath.Join(s.root, deliverableID)
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		return "", err
	}

	var rnd [12]byte
	if _, err := rand.Read(rnd[:]); err != nil {
		return "", err
	}
	name := s.now().UTC().Format("20060102150405") + "_" + base64.RawURLEncoding.EncodeToString(rnd[:]) + ext
	dest := filepath.Join(subdir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// read one byte past the cap to detect oversize streams
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(dest)
		return "", err
	}
	if n > s.maxBytes {
		os.Remove(dest)
		return "", errors.ErrPayloadTooLarge
	}

	rel, err := filepath.Rel(s.root, dest)
	if err != nil {
		os.Remove(dest)
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Open resolves a stored relative path, rejecting anything that escapes
// the root.
func (s *Store) Open(relPath string) (*os.File, error) {
	abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return nil, errors.ErrNotFound
	}
	f, err := os.Open(abs)
	if os.IsNotExist(err) {
		return nil, errors.ErrNotFound
	}
	return f, err
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}
