package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Tool name constants referenced by prompts and tests.
const (
	ToolSearch     = "search"
	ToolCalculator = "calc"
)

// Registry is a fixed mapping from tool name to an invocable capability.
// It is built once at startup; execution-time lookups never mutate it.
type Registry struct {
	tools map[string]tool.InvokableTool
	infos []*schema.ToolInfo
}

// NewRegistry resolves each tool's info and indexes it by name. Duplicate or
// unnamed tools are a construction error rather than a runtime surprise.
func NewRegistry(ctx context.Context, ts ...tool.InvokableTool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tool.InvokableTool, len(ts))}
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tool info: %w", err)
		}
		if info == nil || info.Name == "" {
			return nil, fmt.Errorf("tool info is missing a name")
		}
		if _, dup := r.tools[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", info.Name)
		}
		r.tools[info.Name] = t
		r.infos = append(r.infos, info)
	}
	return r, nil
}

// NewDefaultRegistry builds the registry with the built-in business tools.
func NewDefaultRegistry(ctx context.Context) (*Registry, error) {
	return NewRegistry(ctx,
		createSearchTool(),
		createCalculatorTool(),
	)
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (tool.InvokableTool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Infos returns the tool catalogue in registration order, for binding to the
// chat models.
func (r *Registry) Infos() []*schema.ToolInfo {
	return r.infos
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
