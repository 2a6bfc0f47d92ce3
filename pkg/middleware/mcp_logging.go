// Package middleware provides the logging middleware of the MCP and HTTP surfaces.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// MCPToolLogging creates MCP protocol-level middleware that logs every
// tools/call with its duration and outcome. Tool failures reported through
// CallToolResult.IsError are logged as warnings.
func MCPToolLogging(logger *slog.Logger) mcp.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := []any{
				"tool", toolName(req),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				logger.Error("tool call failed", append(attrs, "error", err)...)
			case isToolError(result):
				logger.Warn("tool call returned error", append(attrs, "error", errorMessage(result))...)
			default:
				logger.Info("tool call", attrs...)
			}
			return result, err
		}
	}
}

// toolName extracts the tool name from a tools/call request.
func toolName(req mcp.Request) string {
	if req == nil {
		return ""
	}
	params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || params == nil {
		return ""
	}
	return params.Name
}

func isToolError(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

// errorMessage extracts the error text from a CallToolResult.
func errorMessage(result mcp.Result) string {
	r, ok := result.(*mcp.CallToolResult)
	if !ok || r == nil || len(r.Content) == 0 {
		return ""
	}
	if text, ok := r.Content[0].(*mcp.TextContent); ok {
		return text.Text
	}
	return ""
}
