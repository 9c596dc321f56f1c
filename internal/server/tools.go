package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Tool names
const (
	ToolPageDetect    = "page_detect"
	ToolPageRectify   = "page_rectify"
	ToolFramesCompare = "frames_compare"
	ToolPagesExtract  = "pages_extract"
)

// toolFunc is the shape of every tool handler: JSON arguments in, a
// JSON-serialisable result out.
type toolFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

// toolDefinitions returns all available tools
func toolDefinitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolPageDetect,
			mcp.WithDescription("Find the document page in a still frame. Returns the four page corners "+
				"(top-left, top-right, bottom-right, bottom-left) in pixel coordinates, a confidence score "+
				"and the frame sharpness. Returns found=false when no page covers enough of the frame."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Absolute path to the image file"),
			),
			mcp.WithBoolean("overlay",
				mcp.Description("Also return the frame with the detected outline drawn on it, as base64 PNG"),
			),
		),
		mcp.NewTool(ToolPageRectify,
			mcp.WithDescription("Flatten the page in a still frame into a rectangular image. Corners are "+
				"detected unless given explicitly."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Absolute path to the image file"),
			),
			mcp.WithArray("corners",
				mcp.Description("Optional corners as 8 numbers: x,y of top-left, top-right, bottom-right, bottom-left"),
				mcp.Items(map[string]interface{}{"type": "number"}),
			),
			mcp.WithNumber("width",
				mcp.Description("Output width in pixels. Default: the longer of the top and bottom edges"),
			),
			mcp.WithNumber("height",
				mcp.Description("Output height in pixels. Default: the longer of the left and right edges"),
			),
			mcp.WithString("output_path",
				mcp.Description("Write the page here instead of returning it base64 encoded"),
			),
		),
		mcp.NewTool(ToolFramesCompare,
			mcp.WithDescription("Compare two frames the way the extractor does: motion score, content "+
				"histogram distance and whether they show the same page."),
			mcp.WithString("path_a",
				mcp.Required(),
				mcp.Description("Absolute path to the first image"),
			),
			mcp.WithString("path_b",
				mcp.Required(),
				mcp.Description("Absolute path to the second image"),
			),
		),
		mcp.NewTool(ToolPagesExtract,
			mcp.WithDescription("Extract every page of a page-flipping video (or a directory of frame "+
				"images) into an output directory with a manifest.json."),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description("Video file or directory of frame images"),
			),
			mcp.WithString("output",
				mcp.Required(),
				mcp.Description("Directory the pages are written to"),
			),
			mcp.WithNumber("fps",
				mcp.Description("Frame rate of a frame directory. Default 10"),
			),
			mcp.WithNumber("interval_ms",
				mcp.Description("Milliseconds between analysed frames. Default 500"),
			),
			mcp.WithNumber("max_pages",
				mcp.Description("Stop after this many pages; 0 for no limit. Default 4"),
			),
			mcp.WithBoolean("merge",
				mcp.Description("Composite each page from several frames. Default true"),
			),
			mcp.WithString("format",
				mcp.Description("Page image format: png or jpg. Default png"),
				mcp.Enum("png", "jpg"),
			),
		),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.handlers = map[string]toolFunc{
		ToolPageDetect:    s.handlePageDetect,
		ToolPageRectify:   s.handlePageRectify,
		ToolFramesCompare: s.handleFramesCompare,
		ToolPagesExtract:  s.handlePagesExtract,
	}

	for _, tool := range toolDefinitions() {
		s.mcpServer.AddTool(tool, s.callTool(tool.Name))
	}
}

// callTool adapts a toolFunc to mcp-go. Failures become tool errors so the
// client sees the message.
func (s *Server) callTool(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := s.executeTool(ctx, name, args)
		if err != nil {
			s.logger.Warn("Tool failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(mustMarshalJSON(result)), nil
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	h, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return h(ctx, args)
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
