package request

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// DefaultMaxArchiveBytes is the largest archive accepted for upload.
const DefaultMaxArchiveBytes int64 = 100 << 20

// ValidateArchive checks that an upload is a non-empty .zip archive no
// larger than maxBytes. A maxBytes of zero or less disables the size check.
func ValidateArchive(name string, size, maxBytes int64) error {
	var ve model.ValidationError
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		ve.Add("archive", model.CodeMissingParameter, "is required")
		return &ve
	}
	if !strings.EqualFold(filepath.Ext(base), ".zip") {
		ve.Add("archive", model.CodeInvalidArchive, fmt.Sprintf("%s is not a ZIP archive", base))
	}
	if size == 0 {
		ve.Add("archive", model.CodeInvalidArchive, fmt.Sprintf("%s is empty", base))
	}
	if maxBytes > 0 && size > maxBytes {
		ve.Add("archive", model.CodeInvalidArchive,
			fmt.Sprintf("%s is %d bytes, larger than the %d byte limit", base, size, maxBytes))
	}
	return ve.OrNil()
}
