package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/chains/callable"
)

// MCPBridge connects to an MCP server over STDIO and exposes its tools as
// chain callables. Tool names are sanitized (dots become underscores) so they
// are valid callable names.
type MCPBridge struct {
	client  *client.Client
	command string
	logger  zerolog.Logger
}

// NewMCPBridge spawns the MCP server process. Call Start to initialize the
// protocol before registering tools, and Close when done.
func NewMCPBridge(logger zerolog.Logger, command string, env, args []string) (*MCPBridge, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required for MCP bridge")
	}

	logger = logger.With().Str("component", "mcpBridge").Logger()

	// Split command into command and args if it contains spaces
	parts := strings.Fields(command)
	cmd := parts[0]
	cmdArgs := append(parts[1:], args...)

	mcpClient, err := client.NewStdioMCPClient(cmd, env, cmdArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdio MCP client: %w", err)
	}

	logger.Info().Str("command", cmd).Strs("args", cmdArgs).Msg("Created MCP bridge")
	return &MCPBridge{
		client:  mcpClient,
		command: cmd,
		logger:  logger,
	}, nil
}

// Start performs the MCP initialization handshake.
func (b *MCPBridge) Start(ctx context.Context) error {
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "chains",
				Version: "1.0.0",
			},
		},
	}

	if _, err := b.client.Initialize(ctx, initReq); err != nil {
		b.logger.Error().Err(err).Str("command", b.command).Msg("MCP initialize failed")
		return fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	b.logger.Info().Str("command", b.command).Msg("MCP bridge initialized")
	return nil
}

// Close shuts down the MCP server process.
func (b *MCPBridge) Close() error {
	return b.client.Close()
}

// RegisterTools lists the server's tools and registers each one with the
// registry. Returns the number of tools registered.
func (b *MCPBridge) RegisterTools(ctx context.Context, reg *callable.Registry) (int, error) {
	result, err := b.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return 0, fmt.Errorf("failed to list tools: %w", err)
	}

	names := lo.Map(result.Tools, func(tool mcp.Tool, _ int) string { return tool.Name })
	b.logger.Info().Str("command", b.command).Strs("tools", names).Msg("Received tools from MCP server")

	for _, tool := range result.Tools {
		if err := reg.Register(b.toolCallable(tool.Name)); err != nil {
			return 0, fmt.Errorf("register MCP tool %s: %w", tool.Name, err)
		}
	}
	return len(result.Tools), nil
}

// toolCallable wraps a single MCP tool invocation. Arguments map from the
// step's kwargs; the tool's text content is concatenated into the result.
func (b *MCPBridge) toolCallable(toolName string) callable.Callable {
	return callable.Func(SafeName(toolName), func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("MCP tool %s takes named parameters only", toolName)
		}

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      toolName,
				Arguments: kwargs,
			},
		}

		result, err := b.client.CallTool(ctx, req)
		if err != nil {
			b.logger.Error().Err(err).Str("tool", toolName).Msg("MCP tool invocation failed")
			return nil, fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
		}
		if result.IsError {
			return nil, fmt.Errorf("tool %s reported an error: %s", toolName, contentText(result.Content))
		}
		return contentText(result.Content), nil
	})
}

func contentText(content []mcp.Content) string {
	var texts []string
	for _, c := range content {
		if textContent, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, textContent.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// SafeName maps an MCP tool name to a callable-safe name. MCP servers commonly
// namespace tools with dots, which collide with config path syntax.
func SafeName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
