package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxSize caps product image uploads at 5 MB.
const DefaultMaxSize = 5 << 20

// allowedExtensions maps accepted file extensions to the content type
// prefixes we expect http.DetectContentType to report for them.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = fmt.Errorf("image exceeds the maximum upload size")

// UnsupportedTypeError is returned for files that are not an accepted image
// format, either by extension or by sniffed content.
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported image type %q (accepted: jpg, jpeg, png, webp, gif)", e.Ext)
}

// Saver writes validated product images under a base directory and hands
// back the public URL path they are served from.
type Saver struct {
	dir     string
	maxSize int64
}

// NewSaver builds a Saver rooted at dir, creating the products subdirectory
// if needed. A non-positive maxSize falls back to DefaultMaxSize.
func NewSaver(dir string, maxSize int64) (*Saver, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Join(dir, "products"), 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Saver{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the base directory uploads are written under.
func (s *Saver) Dir() string {
	return s.dir
}

// SaveProductImage validates and stores an uploaded product image. The file
// gets a random name so uploads can never overwrite each other or escape
// the uploads directory. Returns the URL path the image is served from.
func (s *Saver) SaveProductImage(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	wantType, ok := allowedExtensions[ext]
	if !ok {
		return "", &UnsupportedTypeError{Ext: ext}
	}

	// Read one byte past the limit to detect oversized files without
	// buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	// The extension is client-controlled; sniff the actual bytes too.
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, wantType) {
		return "", &UnsupportedTypeError{Ext: ext}
	}

	name := uuid.Must(uuid.NewV7()).String() + ext
	path := filepath.Join(s.dir, "products", name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return "/uploads/products/" + name, nil
}

// Remove deletes a previously stored image given its public URL path. Paths
// outside the uploads tree and already-deleted files are ignored.
func (s *Saver) Remove(urlPath string) error {
	const prefix = "/uploads/products/"
	if !strings.HasPrefix(urlPath, prefix) {
		return nil
	}
	name := strings.TrimPrefix(urlPath, prefix)
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, "products", name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
