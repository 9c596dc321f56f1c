// Package server implements the MCP (Model Context Protocol) server for page
// extraction tools.
//
// This package exposes the page scanner through the MCP protocol, built on
// mark3labs/mcp-go. It's designed to work with Claude and other MCP-compatible
// clients, letting an assistant find, flatten and extract document pages from
// frames and videos on the local machine.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0; mcp-go handles the
// initialize handshake, tools/list, tools/call and ping.
//
// # Available Tools
//
//   - page_detect: Find the document page in a still frame
//   - page_rectify: Flatten the page of a still frame into a rectangle
//   - frames_compare: Motion and content distance between two frames
//   - pages_extract: Run full extraction over a video or frame directory
//
// Every tool returns its result as pretty-printed JSON text. Images are
// returned base64-encoded as PNG unless an output path is given.
//
// # Image Caching
//
// Still frames are decoded through an ImageCache keyed by path and evicted
// when the tool call returns, so a long-running server holds no frames between
// calls and always sees the current file on disk. Comparing a frame with
// itself decodes it once. Extraction runs do not use the cache.
//
// # Error Handling
//
// Tool failures are returned as MCP tool errors (isError=true) carrying the Go
// error string, never as protocol errors.
//
// # Usage
//
//	srv := server.New(server.Info{Name: "pagescan", Version: "1.0.0"}, extract.DefaultOptions(), logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
