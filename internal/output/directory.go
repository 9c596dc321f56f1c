// Package output writes extraction results to disk.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pagescan/internal/extract"
	"github.com/ironsheep/pagescan/internal/geometry"
	pimaging "github.com/ironsheep/pagescan/internal/imaging"
)

// ManifestName is the file the run metadata is written to.
const ManifestName = "manifest.json"

// Manifest describes one run's output directory.
type Manifest struct {
	RunID          string         `json:"run_id"`
	Fallback       bool           `json:"fallback"`
	FramesAnalyzed int            `json:"frames_analyzed"`
	DurationMS     int64          `json:"duration_ms"`
	ElapsedMS      int64          `json:"elapsed_ms"`
	Pages          []ManifestPage `json:"pages"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ManifestPage is the metadata of one written page.
type ManifestPage struct {
	File             string         `json:"file"`
	ID               string         `json:"id"`
	Index            int            `json:"index"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	Corners          *geometry.Quad `json:"corners,omitempty"`
	Confidence       float64        `json:"confidence"`
	QualityScore     float64        `json:"quality_score"`
	StartMS          int64          `json:"start_ms"`
	EndMS            int64          `json:"end_ms"`
	FrameCount       int            `json:"frame_count"`
	Corrected        bool           `json:"corrected"`
	PoorRegions      int            `json:"poor_regions"`
	AlignmentSuccess bool           `json:"alignment_success"`
	Fallback         bool           `json:"fallback"`
}

// Directory writes pages as page-NNN.<ext> files plus a manifest.
type Directory struct {
	dir     string
	format  imaging.Format
	ext     string
	quality int
	logger  *slog.Logger
}

// NewDirectory creates a sink writing into dir in the named format ("png",
// "jpg"). quality applies to JPEG. A nil logger uses slog.Default().
func NewDirectory(dir, format string, quality int, logger *slog.Logger) (*Directory, error) {
	f, err := pimaging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{dir: dir, format: f, ext: extensions[f], quality: quality, logger: logger}, nil
}

var extensions = map[imaging.Format]string{
	imaging.JPEG: "jpg",
	imaging.PNG:  "png",
	imaging.GIF:  "gif",
	imaging.TIFF: "tif",
	imaging.BMP:  "bmp",
}

// PageFile is the file name of the page at the given zero-based index.
func (d *Directory) PageFile(index int) string {
	return fmt.Sprintf("page-%03d.%s", index+1, d.ext)
}

// WritePages writes every page image and the manifest.
func (d *Directory) WritePages(ctx context.Context, res *extract.Result) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	m := Manifest{
		RunID:          res.RunID,
		Fallback:       res.Fallback,
		FramesAnalyzed: res.FramesAnalyzed,
		DurationMS:     res.Duration.Milliseconds(),
		ElapsedMS:      res.Elapsed.Milliseconds(),
		Pages:          make([]ManifestPage, 0, len(res.Pages)),
		CreatedAt:      time.Now().UTC(),
	}

	for _, p := range res.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.PageFile(p.Index)
		if err := d.writeImage(filepath.Join(d.dir, name), p); err != nil {
			return err
		}
		m.Pages = append(m.Pages, ManifestPage{
			File:             name,
			ID:               p.ID,
			Index:            p.Index,
			Width:            p.Image.Rect.Dx(),
			Height:           p.Image.Rect.Dy(),
			Corners:          p.Corners,
			Confidence:       p.Confidence,
			QualityScore:     p.QualityScore,
			StartMS:          p.StartTime.Milliseconds(),
			EndMS:            p.EndTime.Milliseconds(),
			FrameCount:       p.FrameCount,
			Corrected:        p.Corrected,
			PoorRegions:      p.PoorRegions,
			AlignmentSuccess: p.AlignmentSuccess,
			Fallback:         p.Fallback,
		})
		d.logger.Debug("Wrote page", "file", name, "corrected", p.Corrected)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	d.logger.Info("Pages written", "dir", d.dir, "pages", len(m.Pages))
	return nil
}

func (d *Directory) writeImage(path string, p extract.PageResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := pimaging.Encode(f, p.Image, d.format, d.quality); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads the manifest of an output directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
