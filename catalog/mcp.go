package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scriptshelf/scriptshelf/kit"
)

// RegisterMCP registers the read-only catalog tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerListScripts(srv)
	s.registerGetScript(srv)
	s.registerRecentActivity(srv)
}

// auditMCP records each tool invocation in the activity log, the MCP
// counterpart of the auditRequests HTTP middleware.
func (s *Service) auditMCP(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			s.audit.Log(ctx, "MCP Request", tool)
			return next(ctx, req)
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Service) registerListScripts(srv *mcp.Server) {
	type req struct {
		Language string `json:"language"`
	}

	tool := &mcp.Tool{
		Name:        "catalog_list_scripts",
		Description: "List catalog scripts with tags, highlights and version history, newest first",
		InputSchema: inputSchema(map[string]any{
			"language": map[string]any{"type": "string", "description": "Filter: PowerShell or Bash"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.store.ListScripts(ctx, p.Language)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(s.auditMCP(tool.Name))(endpoint), decode)
}

func (s *Service) registerGetScript(srv *mcp.Server) {
	type req struct {
		Key string `json:"key"`
		ID  int64  `json:"id"`
	}

	tool := &mcp.Tool{
		Name:        "catalog_get_script",
		Description: "Fetch one catalog script by key or numeric id",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string", "description": "Stable catalog key, e.g. PS-01"},
			"id":  map[string]any{"type": "integer", "description": "Numeric script id"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		switch {
		case p.Key != "":
			script, err := s.store.GetScriptByKey(ctx, p.Key)
			if err != nil {
				return nil, err
			}
			if script == nil {
				return nil, fmt.Errorf("script %s not found", p.Key)
			}
			return script, nil
		case p.ID != 0:
			script, err := s.store.GetScriptByID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			if script == nil {
				return nil, fmt.Errorf("script %d not found", p.ID)
			}
			return script, nil
		default:
			return nil, fmt.Errorf("key or id is required")
		}
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(s.auditMCP(tool.Name))(endpoint), decode)
}

func (s *Service) registerRecentActivity(srv *mcp.Server) {
	type req struct {
		Limit int `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "catalog_recent_activity",
		Description: "Read the newest activity log lines, oldest first",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max entries; 0 returns all"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s.audit.Flush()
		logs, err := s.audit.Recent(ctx, p.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"logs": logs}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(s.auditMCP(tool.Name))(endpoint), decode)
}
