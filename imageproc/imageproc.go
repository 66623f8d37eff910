// Package imageproc is the image backend for the fingerprint pipeline:
// decoding, fingerprint normalization, uncompressed encoding and
// fuzz-tolerant comparison.
package imageproc

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

// FingerprintSize is the bounding box both fingerprints and candidates
// are resized into before comparison. The distortion thresholds in the
// fingerprint package are calibrated to this box; changing one without
// recalibrating the other silently changes classification.
const FingerprintSize = 100

// MaxDistortion is the score of two images that share no matching
// pixels, or whose shapes cannot be compared at all.
const MaxDistortion = float64(FingerprintSize * FingerprintSize)

// FitWithin computes the dimensions of an image scaled to fit inside a
// box-by-box square with its aspect ratio preserved. Images smaller than
// the box are scaled up, matching ImageMagick geometry semantics.
func FitWithin(width, height, box int) (int, int) {
	if width <= 0 || height <= 0 {
		return 1, 1
	}
	scale := float64(box) / float64(width)
	if s := float64(box) / float64(height); s < scale {
		scale = s
	}
	w := int(float64(width)*scale + 0.5)
	h := int(float64(height)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// NormalizeFingerprint resizes an image into the fingerprint bounding
// box. Inputs are 8-bit BGR as produced by the loaders; area
// interpolation keeps downscaled photos comparable across encodings and
// resolutions. The caller owns the returned Mat.
func NormalizeFingerprint(img gocv.Mat) gocv.Mat {
	w, h := FitWithin(img.Cols(), img.Rows(), FingerprintSize)
	normalized := gocv.NewMat()
	gocv.Resize(img, &normalized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	return normalized
}

// WriteFingerprint encodes a normalized image as an uncompressed TIFF.
func WriteFingerprint(img gocv.Mat, path string) error {
	goImg, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("cannot convert fingerprint for %s: %v", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %v", path, err)
	}
	defer f.Close()

	if err := tiff.Encode(f, goImg, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return fmt.Errorf("cannot encode %s: %v", path, err)
	}
	return nil
}

// Distortion counts the pixels of two same-shape images whose largest
// per-channel absolute difference exceeds the fuzz tolerance, given as a
// percent of full channel scale. Identical images score 0; a full
// fingerprint box tops out at FingerprintSize squared. Differently
// shaped images score MaxDistortion and never match, so a portrait
// cannot pair with a landscape by stretching.
func Distortion(a, b gocv.Mat, fuzzFactor int) float64 {
	if a.Cols() != b.Cols() || a.Rows() != b.Rows() || a.Channels() != b.Channels() {
		return MaxDistortion
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	// Collapse the channels to the largest difference per pixel.
	channels := gocv.Split(diff)
	peak := channels[0]
	for _, c := range channels[1:] {
		merged := gocv.NewMat()
		gocv.Max(peak, c, &merged)
		peak.Close()
		peak = merged
		c.Close()
	}
	defer peak.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	fuzz := float32(fuzzFactor) * 255.0 / 100.0
	gocv.Threshold(peak, &mask, fuzz, 255, gocv.ThresholdBinary)

	return float64(gocv.CountNonZero(mask))
}
