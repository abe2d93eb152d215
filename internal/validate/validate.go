// Package validate holds the local validation helpers used by the catalog
// services: identifier shape checks and file-upload constraints. Everything
// here is pure; no helper ever touches the network.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
)

// AllowedImageTypes is the MIME allow-list for thumbnail uploads.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

const (
	// MaxFileSizeBytes is the upload size ceiling.
	MaxFileSizeBytes = 5 * 1024 * 1024
	// MaxFileSizeMB is the same ceiling, for user-facing messages.
	MaxFileSizeMB = 5

	// MaxIDLength bounds identifier inputs before the pattern check runs.
	MaxIDLength = 36
)

// Messages are kept verbatim from the admin UI so operators see familiar text.
var (
	ErrNoFile       = errors.New("No file provided")
	ErrFileType     = fmt.Errorf("Invalid file type. Allowed types: %s", strings.Join(AllowedImageTypes, ", "))
	ErrFileTooLarge = fmt.Errorf("File too large. Maximum size is %dMB", MaxFileSizeMB)
)

var uuidV4Pattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidUUID reports whether id is a well-formed UUID v4. It is
// case-insensitive, rejects anything longer than MaxIDLength and never
// panics, whatever the input.
func IsValidUUID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	return uuidV4Pattern.MatchString(id)
}

// FileUpload checks a prospective upload against the thumbnail constraints.
// Checks short-circuit in a fixed order: presence, MIME type, size. The first
// failing check wins and its message is returned; nil means the file is fine.
func FileUpload(f *models.FileUpload) error {
	if f == nil {
		return ErrNoFile
	}
	allowed := false
	for _, t := range AllowedImageTypes {
		if f.ContentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrFileType
	}
	if f.Size > MaxFileSizeBytes {
		return ErrFileTooLarge
	}
	return nil
}
