package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pagescan/internal/extract"
	pimaging "github.com/ironsheep/pagescan/internal/imaging"
)

// DebugWriter saves an annotated copy of every analysed frame: the detected
// outline, coloured by decision, labelled with the detection confidence.
type DebugWriter struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	written int
	err     error
}

// NewDebugWriter writes frames into dir, creating it if needed.
func NewDebugWriter(dir string, logger *slog.Logger) (*DebugWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugWriter{dir: dir, logger: logger}, nil
}

// decisionColor maps each decision to a stable outline colour.
func decisionColor(d extract.Decision) int {
	switch d {
	case extract.DecisionStarted, extract.DecisionAppended:
		return 2
	case extract.DecisionDuplicate:
		return 4
	case extract.DecisionRejected, extract.DecisionSkipped:
		return 1
	default:
		return 0
	}
}

// StepFile is the file name of the frame at the given step.
func StepFile(index int) string {
	return fmt.Sprintf("step-%05d.png", index)
}

// OnStep is an extract.Options.OnStep callback. The first write error is kept
// and later steps are ignored; see Err.
func (w *DebugWriter) OnStep(s extract.Step) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}

	img := s.Frame
	if s.Page != nil {
		label := fmt.Sprintf("%d %.2f", s.Index, s.Page.Confidence)
		img = pimaging.DrawQuad(s.Frame, s.Page.Corners, pimaging.OutlineColor(decisionColor(s.Decision)), label)
	}

	path := filepath.Join(w.dir, StepFile(s.Index))
	if err := imaging.Save(img, path); err != nil {
		w.err = fmt.Errorf("failed to save debug frame: %w", err)
		w.logger.Warn("Debug output disabled", "error", w.err)
		return
	}
	w.written++
}

// Written returns how many frames were saved.
func (w *DebugWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Err returns the first write error, if any.
func (w *DebugWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
