// Package mcpserver exposes the translator to MCP clients over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/translate"
)

// Tool names.
const (
	ConvertTool = "convert_mjcf"
	QueryTool   = "query_scene"
)

// Server registers the translation tools on an MCP server.
type Server struct {
	opts translate.Options
	log  *slog.Logger
	mcp  *server.MCPServer
}

// New builds the server. opts is used for every translation; its Assets
// filesystem resolves mesh files named by the submitted documents.
func New(version string, opts translate.Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		opts: opts,
		log:  log,
		mcp:  server.NewMCPServer("mjcusd", version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(mcp.NewTool(ConvertTool,
		mcp.WithDescription("Translate an MJCF (MuJoCo XML) model into a scene layer."),
		mcp.WithString("xml", mcp.Required(), mcp.Description("The MJCF document.")),
		mcp.WithString("format", mcp.Enum("usda", "json"), mcp.Description("Output format; usda by default.")),
	), s.handleConvert)
	s.mcp.AddTool(mcp.NewTool(QueryTool,
		mcp.WithDescription("Translate an MJCF model and evaluate a JSONPath expression over the scene document."),
		mcp.WithString("xml", mcp.Required(), mcp.Description("The MJCF document.")),
		mcp.WithString("jsonpath", mcp.Required(), mcp.Description(`JSONPath, e.g. $.prims[?(@.type == 'Mesh')].path`)),
	), s.handleQuery)
	return s
}

// ServeStdio serves requests on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) translate(ctx context.Context, xml string) (*translate.Result, error) {
	return translate.Read(ctx, strings.NewReader(xml), s.opts)
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	xml, err := req.RequireString("xml")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := req.GetString("format", "usda")

	res, err := s.translate(ctx, xml)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("translate: %v", err)), nil
	}

	var out string
	switch format {
	case "usda":
		if out, err = scene.USDA(res.Store); err != nil {
			return nil, err
		}
	case "json":
		out = scene.ToJSON(res.Store)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
	s.log.Debug("converted", "format", format, "prims", res.Store.Len())

	result := mcp.NewToolResultText(out)
	if notes := diagnostics(res); notes != "" {
		result.Content = append(result.Content, mcp.NewTextContent(notes))
	}
	return result, nil
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	xml, err := req.RequireString("xml")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expr, err := req.RequireString("jsonpath")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.translate(ctx, xml)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("translate: %v", err)), nil
	}
	matches, err := scene.Query(res.Store, expr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if matches == nil {
		matches = []any{}
	}
	return mcp.NewToolResultText(oj.JSON(matches, &oj.Options{Indent: 2, Sort: true})), nil
}

// diagnostics lists warnings and unresolved references, one per line.
func diagnostics(res *translate.Result) string {
	var b strings.Builder
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	for _, e := range res.Unresolved {
		fmt.Fprintf(&b, "error: %s\n", e)
	}
	return b.String()
}
