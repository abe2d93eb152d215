// Package filex reads local files into upload values for the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
)

var imageTypesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageContentType maps a file name to an image MIME type by extension.
// Unknown extensions yield "application/octet-stream"; upload validation
// rejects those with a message naming the accepted types.
func ImageContentType(name string) string {
	if t, ok := imageTypesByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// ReadUpload loads path into a models.FileUpload, detecting the content type
// from the extension. The whole file is read into memory; thumbnail uploads
// are capped at a few megabytes so this is fine.
func ReadUpload(path string) (*models.FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Size is taken from the bytes actually read, not the stat result, so
	// validation always judges the exact payload that gets uploaded.
	return &models.FileUpload{
		Name:        filepath.Base(path),
		ContentType: ImageContentType(path),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
