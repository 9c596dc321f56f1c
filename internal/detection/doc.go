// Package detection finds a paper document page in a single video frame.
//
// A page is the largest bright, roughly rectangular region whose outline can be
// reduced to a quadrilateral covering a minimum share of the frame. This is a
// narrow, single-document-class detector rather than a general shape finder.
//
// # Algorithm Overview
//
// Detector.Detect runs a fixed pipeline:
//
//  1. Edge map: BT.601 luminance followed by a 3x3 Sobel gradient magnitude
//  2. Threshold: adaptive, from the 85th-percentile luminance of the frame
//  3. Contours: 8-connected flood fill over edge pixels above the threshold
//  4. Polygons: convex hull, Douglas-Peucker simplification, quad selection
//  5. Selection: the largest quad above Options.MinArea of the frame
//  6. Corner ordering and confidence scoring
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Page corners are ordered top-left, top-right, bottom-right, bottom-left.
//
// # Confidence Scores
//
// Confidence (0.0 to 1.0) rates how rectangular the quad looks, averaging
// opposite-side length agreement with interior-angle squareness. An upright
// rectangle scores 1.0. The score is a heuristic for downstream gating, not a
// calibrated probability.
//
// # Limitations
//
// Pages that touch the frame border lose that edge to the Sobel margin. Heavily
// rotated pages (near 45 degrees) may have their corners ordered one position
// off; see OrderCorners.
package detection
