package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Recognized point-cloud extensions. The check is case-sensitive on
// purpose: the service derives the job id from the exact filename.
var pointCloudExts = []string{".las", ".laz"}

// MaxPointCloudBytes mirrors the service-side upload limit (30 GB).
const MaxPointCloudBytes int64 = 30 << 30

// IsPointCloudName reports whether the filename carries a recognized
// point-cloud extension.
func IsPointCloudName(name string) bool {
	for _, ext := range pointCloudExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// CheckPointCloudFile validates a candidate upload before any network work:
// the file must exist, be a regular non-empty file within the size limit,
// and carry a recognized extension.
func CheckPointCloudFile(path string) (os.FileInfo, error) {
	if !IsPointCloudName(filepath.Base(path)) {
		return nil, fmt.Errorf("unsupported file %q: only LAS/LAZ point clouds are accepted (.las, .laz)", filepath.Base(path))
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%q is not a regular file", path)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%q is empty", path)
	}
	if fi.Size() > MaxPointCloudBytes {
		return nil, fmt.Errorf("%q exceeds the 30GB upload limit", path)
	}
	return fi, nil
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
