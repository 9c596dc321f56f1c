package source

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ironsheep/pagescan/internal/imaging"
)

// imageExtensions are the file types read from a sequence directory.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Directory serves the images of a directory, in file name order, as frames
// of a video at a fixed frame rate.
type Directory struct {
	files []string
	fps   float64
}

// NewDirectory lists the images in dir. A non-positive fps uses DefaultFPS.
func NewDirectory(dir string, fps float64) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrUnsupported, dir)
	}
	sort.Strings(files)

	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Directory{files: files, fps: fps}, nil
}

// Len returns the number of frames.
func (d *Directory) Len() int {
	return len(d.files)
}

// Duration is the frame count divided by the frame rate.
func (d *Directory) Duration() time.Duration {
	return time.Duration(float64(len(d.files)) / d.fps * float64(time.Second))
}

// Frame returns the image shown at the given time.
func (d *Directory) Frame(ctx context.Context, at time.Duration) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := frameIndex(at, d.fps)
	if i < 0 || i >= len(d.files) {
		return nil, fmt.Errorf("timestamp %s outside sequence of %s", at, d.Duration())
	}

	img, err := imaging.Load(d.files[i])
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}
	return img, nil
}

// Close is a no-op; frames are decoded on demand.
func (d *Directory) Close() error {
	return nil
}

// frameIndex maps a timestamp to the frame shown at that time. The epsilon
// keeps exact frame boundaries such as 0.3s at 10fps on the later frame.
func frameIndex(at time.Duration, fps float64) int {
	return int(math.Floor(at.Seconds()*fps + 1e-6))
}
