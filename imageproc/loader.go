package imageproc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"photofingerprint/logging"

	"gocv.io/x/gocv"
)

// ImageLoader loads one family of image formats into a Mat.
type ImageLoader interface {
	CanLoad(path string) bool
	LoadImage(path string) (gocv.Mat, error)
}

// StandardLoader handles the formats gocv decodes natively.
type StandardLoader struct{}

func (l *StandardLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".webp":
		return true
	}
	return false
}

func (l *StandardLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %s", path)
	}
	return img, nil
}

// RawLoader handles RAW camera formats by extracting the embedded
// preview with exiftool, falling back to a dcraw conversion.
type RawLoader struct {
	TempDir string
}

// NewRawLoader creates a RawLoader converting through the system temp
// directory.
func NewRawLoader() *RawLoader {
	return &RawLoader{TempDir: os.TempDir()}
}

func (l *RawLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dng", ".raf", ".arw", ".nef", ".cr2", ".cr3", ".nrw", ".srf", ".orf", ".rw2", ".pef":
		return true
	}
	return false
}

func (l *RawLoader) LoadImage(path string) (gocv.Mat, error) {
	tempFile := filepath.Join(l.TempDir, fmt.Sprintf("raw_conv_%d.tiff", time.Now().UnixNano()))
	defer os.Remove(tempFile)

	// The embedded preview is the closest match to the camera's own JPG
	// rendering, so try that before a full raw conversion.
	if convertRaw(tempFile, "exiftool", "-b", "-PreviewImage", path) {
		img := gocv.IMRead(tempFile, gocv.IMReadColor)
		if !img.Empty() {
			return img, nil
		}
		img.Close()
	}

	// -T = TIFF output, -c = write to stdout, -w = camera white balance,
	// -q 3 = high-quality interpolation
	if convertRaw(tempFile, "dcraw", "-T", "-c", "-w", "-q", "3", path) {
		img := gocv.IMRead(tempFile, gocv.IMReadColor)
		if !img.Empty() {
			return img, nil
		}
		img.Close()
	}

	return gocv.NewMat(), fmt.Errorf("failed to convert RAW image: %s", path)
}

// convertRaw runs an external converter with its stdout redirected into
// outputPath and reports whether it produced a non-empty file.
func convertRaw(outputPath string, name string, args ...string) bool {
	outFile, err := os.Create(outputPath)
	if err != nil {
		logging.LogWarning("cannot create temp file for RAW conversion: %v", err)
		return false
	}
	defer outFile.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdout = outFile
	if err := cmd.Run(); err != nil {
		logging.DebugLog("%s conversion failed: %v", name, err)
		return false
	}

	info, err := os.Stat(outputPath)
	return err == nil && info.Size() > 0
}

// LoaderRegistry tries each registered loader in order.
type LoaderRegistry struct {
	loaders []ImageLoader
}

// NewLoaderRegistry creates a registry with the default loaders.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{
		loaders: []ImageLoader{
			&StandardLoader{},
			NewRawLoader(),
		},
	}
}

// CanLoadFile checks whether any registered loader handles the file.
func (r *LoaderRegistry) CanLoadFile(path string) bool {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			return true
		}
	}
	return false
}

// LoadImage loads an image with the first loader claiming its format.
func (r *LoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			return loader.LoadImage(path)
		}
	}
	return gocv.NewMat(), fmt.Errorf("no suitable loader for image: %s", path)
}
