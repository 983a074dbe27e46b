// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes funcgen scanning and generation as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mazrean/funcgen/internal/funcgen"
)

const serverInstructions = `funcgen MCP server. Scans Go packages for struct types embedding the marker type and generates queue function wrappers, service contracts and the dependency registration.

Use scan first to see which declarations are marked and why others were skipped, then generate to write the files. Results of unchanged declarations are reused across calls within a session.`

// Options configure the server.
type Options struct {
	Version string
	// Dir is used when a tool call names no directory.
	Dir      string
	Marker   funcgen.MarkerDefinition
	Tests    bool
	Pipeline []funcgen.PipelineOption
}

type server struct {
	opts     Options
	memo     *funcgen.Memo
	pipeline *funcgen.Pipeline
}

func newServer(opts Options) *server {
	memo := funcgen.NewMemo()

	pipelineOpts := append([]funcgen.PipelineOption{}, opts.Pipeline...)
	pipelineOpts = append(pipelineOpts, funcgen.WithMemo(memo))

	return &server{
		opts:     opts,
		memo:     memo,
		pipeline: funcgen.NewPipeline(opts.Marker, pipelineOpts...),
	}
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	return newMCPServer(opts).Run(ctx, &mcp.StdioTransport{})
}

func newMCPServer(opts Options) *mcp.Server {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "funcgen", Version: version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	newServer(opts).registerAllTools(server)

	return server
}

func (s *server) registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan",
		Description: "Scan Go packages for marked struct types without writing files. Returns the resolved records (declared name, companion service, contract, service package, queue), the artifacts that would be generated and the diagnostics of skipped declarations.",
	}, s.handleScan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate",
		Description: "Generate queue function wrappers, service contracts and the dependency registration for Go packages and write them next to their packages. Returns the written files, whether each changed, the stale generated files removed and the diagnostics of skipped declarations. Use dry_run=true to preview.",
	}, s.handleGenerate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "marker",
		Description: "Return the source of the marker type that declarations embed to be generated for.",
	}, s.handleMarker)
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
