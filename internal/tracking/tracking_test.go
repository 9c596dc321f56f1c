package tracking

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/anthonynsimon/bild/noise"

	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/geometry"
)

// createTestImage creates a solid color test frame
func createTestImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func createNoiseImage(width, height int) *image.RGBA {
	return noise.Generate(width, height, &noise.Options{NoiseFn: noise.Uniform})
}

func pageAt(offset float64) *detection.Page {
	return &detection.Page{
		Corners: geometry.Quad{
			{X: 100 + offset, Y: 100}, {X: 300 + offset, Y: 100},
			{X: 300 + offset, Y: 250}, {X: 100 + offset, Y: 250},
		},
		Confidence: 1,
	}
}

func TestMotion(t *testing.T) {
	black := createTestImage(100, 100, color.RGBA{0, 0, 0, 255})
	white := createTestImage(100, 100, color.RGBA{255, 255, 255, 255})
	gray := createTestImage(100, 100, color.RGBA{20, 20, 20, 255})

	tests := []struct {
		name     string
		current  *image.RGBA
		previous *image.RGBA
		min, max float64
	}{
		{"nil previous", black, nil, 0, 0},
		{"identical", black, black, 0, 0},
		{"below per-sample threshold", gray, black, 0, 0},
		{"full change", white, black, 1, 1},
		{"size mismatch", black, createTestImage(50, 50, color.RGBA{0, 0, 0, 255}), 1, 1},
		{"noise", createNoiseImage(100, 100), createNoiseImage(100, 100), 0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Motion(tt.current, tt.previous)
			if got < tt.min || got > tt.max {
				t.Errorf("got %.3f, want in [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestMotion_PartialChange(t *testing.T) {
	prev := createTestImage(100, 100, color.RGBA{0, 0, 0, 255})
	cur := createTestImage(100, 100, color.RGBA{0, 0, 0, 255})
	// Top half turns white
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			cur.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	got := Motion(cur, prev)
	if got < 0.45 || got > 0.55 {
		t.Errorf("got %.3f, want about 0.5", got)
	}
}

func TestTracker_NeedsTwoDetections(t *testing.T) {
	tr := NewTracker(DefaultOptions())
	frame := createTestImage(80, 60, color.RGBA{40, 40, 40, 255})

	if tr.IsStable() {
		t.Error("empty tracker reported stable")
	}

	tr.AddDetection(pageAt(0), frame, 0, 0)
	if tr.IsStable() {
		t.Error("tracker with one detection reported stable")
	}
	if tr.StableDetection() != nil {
		t.Error("StableDetection returned a page while unstable")
	}

	tr.AddDetection(pageAt(3), frame, 1, 500*time.Millisecond)
	if !tr.IsStable() {
		t.Error("two still detections should be stable")
	}
	if got := tr.StableDetection(); got == nil || got.Corners[0].X != 103 {
		t.Errorf("StableDetection: got %+v, want the newest detection", got)
	}
}

func TestTracker_CornerTolerance(t *testing.T) {
	frame := createTestImage(80, 60, color.RGBA{40, 40, 40, 255})

	tests := []struct {
		name   string
		shift  float64
		stable bool
	}{
		{"within doubled threshold", 20, true},
		{"beyond doubled threshold", 21, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(DefaultOptions())
			tr.AddDetection(pageAt(0), frame, 0, 0)
			tr.AddDetection(pageAt(tt.shift), frame, 1, 500*time.Millisecond)
			if got := tr.IsStable(); got != tt.stable {
				t.Errorf("IsStable: got %v, want %v", got, tt.stable)
			}
		})
	}
}

func TestTracker_MotionBlocksStability(t *testing.T) {
	tr := NewTracker(DefaultOptions())
	black := createTestImage(80, 60, color.RGBA{0, 0, 0, 255})
	white := createTestImage(80, 60, color.RGBA{255, 255, 255, 255})

	tr.AddDetection(pageAt(0), black, 0, 0)
	if score := tr.AddDetection(pageAt(0), white, 1, 500*time.Millisecond); score != 1 {
		t.Fatalf("motion score: got %.3f, want 1", score)
	}
	if tr.IsStable() {
		t.Error("high motion should block stability")
	}

	// One still frame: average of (1, 0) is still above the threshold
	tr.AddDetection(pageAt(0), white, 2, time.Second)
	if tr.IsStable() {
		t.Error("average motion 0.5 should block stability")
	}

	tr.AddDetection(pageAt(0), white, 3, 1500*time.Millisecond)
	if !tr.IsStable() {
		t.Error("two still frames should restore stability")
	}
}

func TestTracker_MissedDetection(t *testing.T) {
	frame := createTestImage(80, 60, color.RGBA{40, 40, 40, 255})

	tr := NewTracker(DefaultOptions())
	tr.AddDetection(pageAt(0), frame, 0, 0)
	tr.AddDetection(pageAt(0), frame, 1, 500*time.Millisecond)

	// A short miss keeps history
	tr.AddDetection(nil, frame, 2, time.Second)
	if tr.Detections() != 2 {
		t.Fatalf("short miss cleared history: %d detections", tr.Detections())
	}
	if !tr.IsStable() {
		t.Error("short miss should not break stability")
	}

	// A miss more than a second after the last detection resets
	tr.AddDetection(nil, frame, 3, 1600*time.Millisecond)
	if tr.Detections() != 0 {
		t.Errorf("long miss kept %d detections", tr.Detections())
	}
	if len(tr.MotionHistory()) != 0 {
		t.Errorf("long miss kept %d motion samples", len(tr.MotionHistory()))
	}
}

func TestTracker_ResetKeepsPreviousFrame(t *testing.T) {
	black := createTestImage(80, 60, color.RGBA{0, 0, 0, 255})
	white := createTestImage(80, 60, color.RGBA{255, 255, 255, 255})

	tr := NewTracker(DefaultOptions())
	tr.AddDetection(pageAt(0), black, 0, 0)
	tr.Reset()

	if tr.Detections() != 0 {
		t.Fatal("Reset kept detections")
	}
	if score := tr.AddDetection(pageAt(0), white, 1, 500*time.Millisecond); score != 1 {
		t.Errorf("motion after reset: got %.3f, want 1 (compared against the kept frame)", score)
	}
}

func TestTracker_BoundedHistory(t *testing.T) {
	frame := createTestImage(40, 40, color.RGBA{40, 40, 40, 255})
	tr := NewTracker(DefaultOptions())

	for i := 0; i < 25; i++ {
		tr.AddDetection(pageAt(0), frame, i, time.Duration(i)*100*time.Millisecond)
	}
	if tr.Detections() != 10 {
		t.Errorf("detections: got %d, want 10", tr.Detections())
	}
	history := tr.MotionHistory()
	if len(history) != 10 {
		t.Fatalf("motion samples: got %d, want 10", len(history))
	}
	if history[0].FrameIndex != 15 {
		t.Errorf("oldest sample: got frame %d, want 15", history[0].FrameIndex)
	}
}
