package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"marketplace-api/internal/logging"
)

var (
	ErrNotDataURL      = errors.New("image must be a base64 data URL")
	ErrBadEncoding     = errors.New("image payload is not valid base64")
	ErrTooLarge        = errors.New("image exceeds the maximum allowed size")
	ErrNotImage        = errors.New("uploaded content is not an image")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// IsValidationError reports whether an intake failure was caused by the
// caller's input (surfaced as 400) rather than by the file system.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNotDataURL) ||
		errors.Is(err, ErrBadEncoding) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrNotImage) ||
		errors.Is(err, ErrUnsupportedType)
}

// allowedExtensions is the fixed whitelist of extensions we persist.
// Extensions are derived from the sniffed content type, never from the
// data URL header the client declared.
var allowedExtensions = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpeg",
	".png":  "png",
	".webp": "webp",
}

// Store validates inbound base64 images and persists them under a single
// upload directory. Stored paths are bare filenames relative to that
// directory; PublicPath turns them into servable URLs.
type Store struct {
	dir    string
	logger *logging.Logger
}

func NewStore(dir string, logger *logging.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the upload root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Ingest validates a data-URL image and writes it to disk, returning the
// generated filename. prefix namespaces filenames per caller, e.g.
// "listing" or "avatar_42".
//
// There is no rollback: if the caller's subsequent database write fails
// the file is orphaned, which is accepted.
func (s *Store) Ingest(dataURL string, maxBytes int64, prefix string) (string, error) {
	payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrBadEncoding
	}
	if int64(len(data)) > maxBytes {
		return "", ErrTooLarge
	}

	// Sniff the real content type from the bytes; the declared mime in the
	// data URL header is untrusted.
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}

	ext, ok := allowedExtensions[mtype.Extension()]
	if !ok {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%d_%s.%s", prefix, time.Now().UnixMilli(), randomSuffix(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return filename, nil
}

// Remove deletes a previously ingested file. Best effort: a failure is
// logged and swallowed so delete/replace flows never fail on cleanup.
func (s *Store) Remove(relative string) {
	if relative == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, relative)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove uploaded file", "file", relative, "error", err.Error())
	}
}

// PublicPath rewrites a stored relative filename into the public URL the
// file is served under. Empty stays empty.
func (s *Store) PublicPath(relative string) string {
	if relative == "" {
		return ""
	}
	return "/uploads/" + relative
}

// splitDataURL extracts the base64 payload from a
// "data:<mime>;base64,<payload>" string.
func splitDataURL(dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", ErrNotDataURL
	}
	header, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", ErrNotDataURL
	}
	return payload, nil
}

func randomSuffix() string {
	// uuid gives more entropy than needed; eight hex chars keep filenames short
	return uuid.NewString()[:8]
}
