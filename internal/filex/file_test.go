package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"logo.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"pic.webp", "image/webp"},
		{"doc.pdf", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageContentType(tt.name), tt.name)
	}
}

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.png")
	require.NoError(t, os.WriteFile(path, []byte("pngdata"), 0o600))

	up, err := ReadUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "thumb.png", up.Name)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, int64(7), up.Size)
	assert.Equal(t, []byte("pngdata"), up.Data)
}

func TestReadUpload_SizeMatchesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(path, make([]byte, 1234), 0o600))

	up, err := ReadUpload(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(up.Data)), up.Size, "size is derived from the read bytes")
	assert.Len(t, up.Data, 1234)
}

func TestReadUpload_MissingFile(t *testing.T) {
	_, err := ReadUpload(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestReadUpload_Directory(t *testing.T) {
	_, err := ReadUpload(t.TempDir())
	require.Error(t, err)
}
