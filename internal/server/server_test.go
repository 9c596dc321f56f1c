package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/noise"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pagescan/internal/extract"
	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
	"github.com/ironsheep/pagescan/internal/output"
	"github.com/ironsheep/pagescan/internal/source"
)

var testCorners = geometry.Quad{{X: 80, Y: 60}, {X: 240, Y: 60}, {X: 240, Y: 180}, {X: 80, Y: 180}}

func newTestServer() *Server {
	return New(Info{Name: "pagescan-test", Version: "test"}, extract.DefaultOptions(), nil)
}

// writeTestImage writes img as PNG into dir and returns its path
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, writeImage(path, img))
	return path
}

func pageImage(t *testing.T, level uint8) *image.RGBA {
	t.Helper()
	img, err := source.Page(320, 240, testCorners,
		color.RGBA{level, level, level, 255}, color.RGBA{30, 30, 30, 255})
	require.NoError(t, err)
	return img
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

// call invokes a tool through the mcp-go adapter and returns its text
func call(t *testing.T, s *Server, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	result, err := s.callTool(name)(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text, result.IsError
}

func TestNew(t *testing.T) {
	s := newTestServer()
	assert.NotNil(t, s.MCPServer())
	assert.NotNil(t, s.cache)
	assert.Len(t, s.handlers, 4)

	names := map[string]bool{}
	for _, tool := range toolDefinitions() {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		_, ok := s.handlers[tool.Name]
		assert.True(t, ok, "no handler for %s", tool.Name)
	}
	assert.Len(t, names, 4)
}

func TestToolDefinitions_RequiredArguments(t *testing.T) {
	required := map[string][]string{
		ToolPageDetect:    {"path"},
		ToolPageRectify:   {"path"},
		ToolFramesCompare: {"path_a", "path_b"},
		ToolPagesExtract:  {"input", "output"},
	}
	for _, tool := range toolDefinitions() {
		assert.ElementsMatch(t, required[tool.Name], tool.InputSchema.Required, tool.Name)
	}
}

func TestExecuteTool_Unknown(t *testing.T) {
	_, err := newTestServer().executeTool(context.Background(), "image_crop", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	_, err := newTestServer().executeTool(context.Background(), ToolPageDetect, json.RawMessage(`{"path": 3}`))
	assert.ErrorContains(t, err, "invalid arguments")
}

func TestPageDetect(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "frame.png", pageImage(t, 240))

	text, isErr := call(t, s, ToolPageDetect, map[string]interface{}{"path": path, "overlay": true})
	require.False(t, isErr, text)

	var res PageDetectResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.True(t, res.Found)
	assert.Equal(t, 320, res.Width)
	require.NotNil(t, res.Corners)
	for i := range testCorners {
		assert.InDelta(t, 0, res.Corners[i].Dist(testCorners[i]), 4, "corner %d", i)
	}
	assert.Greater(t, res.Confidence, 0.8)
	assert.InDelta(t, 0.25, res.AreaRatio, 0.03)
	assert.True(t, res.WithinSkew)
	assert.NotEmpty(t, res.Overlay)
}

func TestPageDetect_NoPage(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "blank.png", blank(100, 80))

	res, err := s.handlePageDetect(context.Background(), json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
	require.NoError(t, err)
	got := res.(*PageDetectResult)
	assert.False(t, got.Found)
	assert.Nil(t, got.Corners)
	assert.Empty(t, got.Overlay)
}

func TestPageDetect_Errors(t *testing.T) {
	s := newTestServer()

	text, isErr := call(t, s, ToolPageDetect, map[string]interface{}{})
	assert.True(t, isErr)
	assert.Contains(t, text, "path is required")

	_, isErr = call(t, s, ToolPageDetect, map[string]interface{}{"path": "/nonexistent/frame.png"})
	assert.True(t, isErr)
}

func TestPageRectify_Detected(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "frame.png", pageImage(t, 240))

	text, isErr := call(t, s, ToolPageRectify, map[string]interface{}{"path": path})
	require.False(t, isErr, text)

	var res PageRectifyResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.True(t, res.Detected)
	assert.InDelta(t, 160, res.Width, 6)
	assert.InDelta(t, 120, res.Height, 6)
	assert.NotEmpty(t, res.Image)
}

func TestPageRectify_ExplicitCorners(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	path := writeTestImage(t, dir, "frame.png", pageImage(t, 200))
	out := filepath.Join(dir, "page.jpg")

	text, isErr := call(t, s, ToolPageRectify, map[string]interface{}{
		"path":        path,
		"corners":     []interface{}{90.0, 70.0, 230.0, 70.0, 230.0, 170.0, 90.0, 170.0},
		"width":       70,
		"height":      50,
		"output_path": out,
	})
	require.False(t, isErr, text)

	var res PageRectifyResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.False(t, res.Detected)
	assert.Equal(t, 70, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Empty(t, res.Image)

	written, err := imaging.Load(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 70, 50), written.Rect)
	assert.InDelta(t, 200, int(written.RGBAAt(35, 25).R), 8)
}

func TestPageRectify_BadCorners(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "frame.png", pageImage(t, 200))

	_, err := s.executeTool(context.Background(), ToolPageRectify,
		json.RawMessage(fmt.Sprintf(`{"path": %q, "corners": [1, 2, 3]}`, path)))
	assert.ErrorContains(t, err, "8 numbers")

	_, err = s.executeTool(context.Background(), ToolPageRectify,
		json.RawMessage(fmt.Sprintf(`{"path": %q, "corners": [5,5,5,5,5,5,5,5]}`, path)))
	assert.Error(t, err, "collapsed corners cannot be rectified")
}

func TestPageRectify_NoPage(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "blank.png", blank(50, 50))
	_, err := s.executeTool(context.Background(), ToolPageRectify, json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
	assert.ErrorContains(t, err, "no page detected")
}

func TestFramesCompare(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", pageImage(t, 250))
	b := writeTestImage(t, dir, "b.png", pageImage(t, 110))

	res, err := s.handleFramesCompare(context.Background(),
		json.RawMessage(fmt.Sprintf(`{"path_a": %q, "path_b": %q}`, a, a)))
	require.NoError(t, err)
	same := res.(*FramesCompareResult)
	assert.Zero(t, same.Motion)
	assert.False(t, same.Moving)
	assert.Zero(t, same.Distance)
	assert.Equal(t, VerdictSame, same.Verdict)
	assert.Greater(t, same.SharpnessA, 0.0)

	res, err = s.handleFramesCompare(context.Background(),
		json.RawMessage(fmt.Sprintf(`{"path_a": %q, "path_b": %q}`, a, b)))
	require.NoError(t, err)
	diff := res.(*FramesCompareResult)
	assert.Equal(t, VerdictDifferent, diff.Verdict)
	assert.Greater(t, diff.Distance, 0.5)
}

func TestFramesCompare_MissingPath(t *testing.T) {
	text, isErr := call(t, newTestServer(), ToolFramesCompare, map[string]interface{}{"path_a": "x.png"})
	assert.True(t, isErr)
	assert.Contains(t, text, "path_b")
}

func TestPagesExtract(t *testing.T) {
	s := newTestServer()
	frames := t.TempDir()

	// 4 fps: two seconds of each page with a second of page turning between
	var n int
	add := func(img image.Image) {
		writeTestImage(t, frames, fmt.Sprintf("frame-%03d.png", n), img)
		n++
	}
	for i := 0; i < 8; i++ {
		add(pageImage(t, 250))
	}
	for i := 0; i < 4; i++ {
		add(noise.Generate(320, 240, &noise.Options{NoiseFn: noise.Uniform}))
	}
	for i := 0; i < 8; i++ {
		add(pageImage(t, 110))
	}

	out := filepath.Join(t.TempDir(), "pages")
	text, isErr := call(t, s, ToolPagesExtract, map[string]interface{}{
		"input":       frames,
		"output":      out,
		"fps":         4,
		"interval_ms": 250,
		"max_pages":   0,
	})
	require.False(t, isErr, text)

	var res PagesExtractResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.NotNil(t, res.Manifest)
	assert.False(t, res.Manifest.Fallback)
	assert.Equal(t, 20, res.Manifest.FramesAnalyzed)
	require.Len(t, res.Manifest.Pages, 2)

	for _, p := range res.Manifest.Pages {
		_, err := os.Stat(filepath.Join(out, p.File))
		assert.NoError(t, err, p.File)
		assert.True(t, p.Corrected)
	}
	_, err := output.ReadManifest(out)
	assert.NoError(t, err)
}

func TestPagesExtract_MissingInput(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool(context.Background(), ToolPagesExtract,
		json.RawMessage(fmt.Sprintf(`{"input": %q, "output": %q}`, filepath.Join(t.TempDir(), "none"), t.TempDir())))
	assert.Error(t, err)

	_, err = s.executeTool(context.Background(), ToolPagesExtract, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "input and output are required")
}

func TestTools_EvictFramesAfterCall(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", pageImage(t, 250))
	b := writeTestImage(t, dir, "b.png", pageImage(t, 110))

	calls := []struct {
		name string
		args map[string]interface{}
	}{
		{ToolPageDetect, map[string]interface{}{"path": a}},
		{ToolPageRectify, map[string]interface{}{"path": a}},
		{ToolFramesCompare, map[string]interface{}{"path_a": a, "path_b": b}},
		{ToolFramesCompare, map[string]interface{}{"path_a": a, "path_b": a}},
	}
	for _, c := range calls {
		text, isErr := call(t, s, c.name, c.args)
		require.False(t, isErr, "%s: %s", c.name, text)
		assert.Zero(t, s.cache.Len(), "%s left frames cached", c.name)
	}
}

func TestPageDetect_SeesFileChanges(t *testing.T) {
	s := newTestServer()
	path := writeTestImage(t, t.TempDir(), "frame.png", blank(320, 240))

	res, err := s.handlePageDetect(context.Background(), json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
	require.NoError(t, err)
	assert.False(t, res.(*PageDetectResult).Found)

	require.NoError(t, writeImage(path, pageImage(t, 240)))
	res, err = s.handlePageDetect(context.Background(), json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
	require.NoError(t, err)
	assert.True(t, res.(*PageDetectResult).Found)
}

func TestPageDetect_SharpnessAtAnalysisResolution(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()

	// Frames larger than the analysis size, one with a page and one without
	page, err := source.Page(1600, 1200, testCorners.Scale(5),
		color.RGBA{240, 240, 240, 255}, color.RGBA{30, 30, 30, 255})
	require.NoError(t, err)
	noPage := image.NewRGBA(image.Rect(0, 0, 1600, 1200))
	for y := 0; y < 1200; y++ {
		v := uint8(0)
		if (y/40)%2 == 0 {
			v = 255
		}
		for x := 0; x < 1600; x++ {
			noPage.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}

	for name, img := range map[string]*image.RGBA{"page": page, "no page": noPage} {
		path := writeTestImage(t, dir, name+".png", img)
		res, err := s.handlePageDetect(context.Background(), json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
		require.NoError(t, err)
		got := res.(*PageDetectResult)
		assert.Equal(t, name == "page", got.Found, name)

		small, _ := imaging.Downscale(img, s.opts.AnalysisMaxDim)
		want := imaging.Sharpness(imaging.Grayscale(small))
		assert.InDelta(t, want, got.Sharpness, 1e-9, name)
	}
}
