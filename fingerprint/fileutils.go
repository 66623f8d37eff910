package fingerprint

import (
	"path/filepath"
	"strings"
	"time"
)

// FingerprintExt is the format fingerprints are written in. TIFF keeps
// them uncompressed and byte-stable across regenerations.
const FingerprintExt = ".tif"

// IsSupportedImage checks whether a path names a supported image by
// extension alone. Kept in sync with the imageproc loader registry.
func IsSupportedImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".webp":
		return true
	case ".dng", ".raf", ".arw", ".nef", ".cr2", ".cr3", ".nrw", ".srf", ".orf", ".rw2", ".pef":
		return true
	default:
		return false
	}
}

// Stem returns the filename without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FingerprintFilename maps a source image name onto its fingerprint
// name: same stem, fingerprint extension.
func FingerprintFilename(path string) string {
	return Stem(path) + FingerprintExt
}

// ConvertExifTimestamp reformats an EXIF capture timestamp
// (2021:05:04 10:00:00) into its ISO-like form (2021-05-04 10:00:00).
func ConvertExifTimestamp(timestamp string) (string, error) {
	t, err := time.Parse("2006:01:02 15:04:05", timestamp)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02 15:04:05"), nil
}
