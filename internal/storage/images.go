package storage

import (
	"errors"         // Sentinel errors
	"io"             // File copying
	"mime/multipart" // Uploaded file headers
	"net/http"       // Content sniffing
	"os"             // Filesystem operations
	"path/filepath"  // Path handling
	"strings"        // Content type prefix check

	"github.com/google/uuid"     // Unique filenames
	"github.com/sirupsen/logrus" // Logging library
)

// ErrNotImage is returned when an uploaded file does not contain image data
var ErrNotImage = errors.New("uploaded file is not an image")

// SaveImage stores an uploaded image under <root>/<kind>/ with a generated
// unique filename and returns the name relative to root (e.g.
// "products/3f2a....png"). The payload is sniffed and rejected when it does
// not look like an image, regardless of its original filename.
func SaveImage(root, kind string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open() // Open the uploaded file
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Sniff the first bytes to verify this is image data
	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if !isImageContent(http.DetectContentType(head[:n])) {
		return "", ErrNotImage // Reject non-image payloads
	}
	// Rewind so the whole payload gets written out
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	dir := filepath.Join(root, kind) // Namespace files per entity kind
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	// Generated name, independent of the original filename
	name := uuid.New().String() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(kind, name)), nil // Name stored in the row
}

// RemoveImage deletes a stored image file. Removal is best effort: a failure
// is logged and never surfaced, so row deletion is not blocked by filesystem
// state.
func RemoveImage(root, name string) {
	if name == "" {
		return // Nothing stored
	}
	if err := os.Remove(filepath.Join(root, filepath.FromSlash(name))); err != nil && !os.IsNotExist(err) {
		// Log and move on, the row delete must still go through
		logrus.WithFields(logrus.Fields{
			"image": name,        // Stored image name
			"error": err.Error(), // Error message
		}).Warn("Failed to remove image file")
	}
}

// isImageContent reports whether a sniffed content type is an image type
func isImageContent(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
