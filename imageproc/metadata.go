package imageproc

import (
	"fmt"

	exiftool "github.com/barasher/go-exiftool"
)

// Attribute names used by the fingerprint pipeline. The comment tag
// carries the original source path on generated fingerprints.
const (
	commentTag     = "ImageDescription"
	captureTimeTag = "DateTimeOriginal"
)

// Metadata reads and writes string attributes on image files through a
// single long-lived exiftool process. The process starts lazily on first
// use, so runs that never touch metadata do not need the binary at all.
// A Metadata value is not safe for concurrent use; give each worker its
// own.
type Metadata struct {
	et *exiftool.Exiftool
}

// NewMetadata creates an idle metadata handle.
func NewMetadata() *Metadata {
	return &Metadata{}
}

func (m *Metadata) tool() (*exiftool.Exiftool, error) {
	if m.et == nil {
		et, err := exiftool.NewExiftool()
		if err != nil {
			return nil, fmt.Errorf("cannot start exiftool: %v", err)
		}
		m.et = et
	}
	return m.et, nil
}

// Close stops the underlying exiftool process if one was started.
func (m *Metadata) Close() {
	if m.et != nil {
		m.et.Close()
		m.et = nil
	}
}

// ReadComment returns the source-path comment stamped on a fingerprint,
// or "" when the attribute is absent.
func (m *Metadata) ReadComment(path string) (string, error) {
	return m.readTag(path, commentTag)
}

// ReadCaptureTime returns the EXIF original capture timestamp in its
// source format (YYYY:MM:DD HH:MM:SS), or "" when the file carries none.
func (m *Metadata) ReadCaptureTime(path string) (string, error) {
	return m.readTag(path, captureTimeTag)
}

func (m *Metadata) readTag(path, tag string) (string, error) {
	et, err := m.tool()
	if err != nil {
		return "", err
	}

	metas := et.ExtractMetadata(path)
	if len(metas) == 0 {
		return "", fmt.Errorf("no metadata result for %s", path)
	}
	if metas[0].Err != nil {
		return "", metas[0].Err
	}

	value, err := metas[0].GetString(tag)
	if err != nil {
		// An absent attribute is not a failure.
		return "", nil
	}
	return value, nil
}

// WriteComment stamps the original source path on a generated
// fingerprint file. This is the durable link find-duplicates uses to
// report matches under a human-meaningful name.
func (m *Metadata) WriteComment(path, comment string) error {
	et, err := m.tool()
	if err != nil {
		return err
	}

	meta := exiftool.EmptyFileMetadata(path)
	meta.SetString(commentTag, comment)

	metas := []exiftool.FileMetadata{meta}
	et.WriteMetadata(metas)
	if metas[0].Err != nil {
		return fmt.Errorf("cannot stamp comment on %s: %v", path, metas[0].Err)
	}
	return nil
}
