// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the recent-updates views for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/pageservice"
)

const contractURI = "recently://front-matter"

// Server wraps the MCP server with the site tools.
type Server struct {
	mcp *server.MCPServer
	svc *pageservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *pageservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"recently",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("recent_pages",
		mcp.WithDescription("List the most recently updated pages of the site, newest first."),
		mcp.WithNumber("limit", mcp.Description("Return at most this many entries (default: all, at most 20)")),
	), s.recentPages)

	s.mcp.AddTool(mcp.NewTool("month_groups",
		mcp.WithDescription("List recently updated pages grouped by calendar month, most recent month first."),
	), s.monthGroups)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List indexed pages in path order."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset (default 0)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read one page by its public URL, including front matter and Markdown body."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Public URL of the page (e.g. /docs/guide.html)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("get_front_matter_contract",
		mcp.WithDescription("Returns the front matter fields that decide whether and how a page is listed. "+
			"Call this before editing pages so they show up in the recent-updates listing."),
	), s.getContract)

	// Resource: front matter contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Front Matter Contract",
			mcp.WithResourceDescription("Front matter fields read by the page indexer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recentPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, _, err := s.svc.RecentList(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return jsonResult(entries)
}

func (s *Server) monthGroups(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, _, err := s.svc.MonthGroups(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(groups)
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	offset := req.GetInt("offset", 0)
	pages, total, err := s.svc.ListPages(ctx, limit, offset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"pages": pages, "total": total})
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.GetPage(ctx, url)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", url)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) getContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontMatterContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontMatterContract,
		},
	}, nil
}
