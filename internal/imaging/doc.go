// Package imaging provides the raster primitives the page pipeline is built on.
//
// This package normalises decoded frames into zero-origin *image.RGBA buffers,
// derives luminance maps and Sobel gradient magnitudes, computes luminance
// histograms and Laplacian-variance sharpness, samples pixels bilinearly, and
// handles the encode/decode and downscaling work around the core algorithms.
// All operations use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, image.Rectangle semantics apply: Min is inclusive, Max is
//     exclusive
//
// Fractional coordinates passed to SampleBilinear address pixel centres: the
// value at (3.0, 4.0) is exactly pixel (3, 4).
//
// # Frame Layout
//
// Every function that takes a *image.RGBA assumes the layout produced by
// ToRGBA: Rect.Min is (0,0) and Stride is 4*width. Frames from other sources
// must pass through ToRGBA first. Alpha is carried but ignored by the
// analysis functions.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are pure:
// they never modify their inputs and can be called concurrently.
//
// # Luminance
//
// Grayscale conversion uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B),
// rounded to the nearest 8-bit level.
package imaging
