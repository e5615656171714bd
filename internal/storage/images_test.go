package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formFile builds a multipart.FileHeader carrying the given content
func formFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, header, err := req.FormFile("image")
	require.NoError(t, err)
	return header
}

func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}

func TestSaveImage(t *testing.T) {
	root := t.TempDir()
	fh := formFile(t, "photo.png", pngBytes())

	name, err := SaveImage(root, "products", fh)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "products/"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	// Generated name, not the original one
	assert.NotContains(t, name, "photo")

	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(), data)
}

func TestSaveImageUniqueNames(t *testing.T) {
	root := t.TempDir()

	a, err := SaveImage(root, "products", formFile(t, "photo.png", pngBytes()))
	require.NoError(t, err)
	b, err := SaveImage(root, "products", formFile(t, "photo.png", pngBytes()))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	root := t.TempDir()
	fh := formFile(t, "fake.png", []byte("this is not an image at all"))

	_, err := SaveImage(root, "products", fh)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestRemoveImage(t *testing.T) {
	root := t.TempDir()
	name, err := SaveImage(root, "resources", formFile(t, "photo.png", pngBytes()))
	require.NoError(t, err)

	RemoveImage(root, name)
	_, err = os.Stat(filepath.Join(root, name))
	assert.True(t, os.IsNotExist(err))

	// Removing a missing or empty name never panics
	RemoveImage(root, name)
	RemoveImage(root, "")
}
