package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Downscale fits img inside a maxDim x maxDim box for analysis.
//
// Returns the analysis frame and the factor that maps analysis coordinates back
// to img coordinates (always >= 1). Frames already within the box, or a
// non-positive maxDim, are returned unchanged with factor 1.
func Downscale(img *image.RGBA, maxDim int) (*image.RGBA, float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img, 1
	}

	small := ToRGBA(imaging.Fit(img, maxDim, maxDim, imaging.Linear))
	long, smallLong := w, small.Rect.Dx()
	if h > w {
		long, smallLong = h, small.Rect.Dy()
	}
	if smallLong == 0 {
		return img, 1
	}
	return small, float64(long) / float64(smallLong)
}

// ParseFormat maps a format name or file extension ("png", ".jpg", "jpeg") to
// an encoder format.
func ParseFormat(name string) (imaging.Format, error) {
	if name == "" {
		return imaging.PNG, nil
	}
	if name[0] != '.' {
		name = "." + name
	}
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, fmt.Errorf("unsupported image format %q: %w", name, err)
	}
	return f, nil
}

// Encode writes img in the given format. quality applies to JPEG only; values
// outside 1..100 use the encoder default.
func Encode(w io.Writer, img image.Image, format imaging.Format, quality int) error {
	var opts []imaging.EncodeOption
	if format == imaging.JPEG && quality >= 1 && quality <= 100 {
		opts = append(opts, imaging.JPEGQuality(quality))
	}
	if err := imaging.Encode(w, img, format, opts...); err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, imaging.PNG, 0); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
