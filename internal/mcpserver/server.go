// Package mcpserver exposes the tool registry over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
	"github.com/yolodolo42/plasma-mcp/internal/tools"
)

// Config names the server in the MCP handshake.
type Config struct {
	Name    string
	Version string
}

// NewMCPServer registers every tool in reg on a new MCP server.
func NewMCPServer(cfg Config, reg *tools.Registry) *server.MCPServer {
	s := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range reg.Tools() {
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema), ToolHandler(reg, t.Name))
	}
	return s
}

// ToolHandler adapts one registry tool to an MCP handler. Tool failures are
// reported as error results, not protocol errors.
func ToolHandler(reg *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res, err := reg.Execute(ctx, name, raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out := &mcp.CallToolResult{}
		for _, c := range res.Content {
			out.Content = append(out.Content, mcp.NewTextContent(c.Text))
		}
		return out, nil
	}
}

// ServeStdio serves MCP over the given streams until ctx is cancelled or
// stdin closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, stdin io.Reader, stdout io.Writer) error {
	logger.Info("serving MCP over stdio")
	err := server.NewStdioServer(s).Listen(ctx, stdin, stdout)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ServeSSE serves MCP over HTTP server-sent events on addr until ctx is
// cancelled.
func ServeSSE(ctx context.Context, s *server.MCPServer, addr, baseURL string) error {
	sse := server.NewSSEServer(s, server.WithBaseURL(baseURL))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over SSE on %s", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return sse.Shutdown(context.Background())
	}
}
