package tools

import (
	"context"
	"reflect"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

// Option configures which tools are registered
type Option func(*registry)

type registry struct {
	server  *sdkmcp.Server
	logger  *logging.Logger
	metrics *metrics.Manager
}

// Register applies the provided tool options
func Register(server *sdkmcp.Server, logger *logging.Logger, m *metrics.Manager, opts ...Option) {
	if logger == nil {
		logger = logging.NewNop()
	}
	reg := &registry{server: server, logger: logger.Named("tools"), metrics: m}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(reg)
	}
}

// instrument wraps a handler with call metrics and error logging
func instrument[In any](reg *registry, name string, h sdkmcp.ToolHandlerFor[In, any]) sdkmcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		reg.metrics.RecordToolCall(name, err)
		if err != nil {
			reg.logger.Warn("tool call failed", "tool", name, "err", err, "took", time.Since(start))
		} else {
			reg.logger.Debug("tool call completed", "tool", name, "took", time.Since(start))
		}
		return res, out, err
	}
}

// absent reports whether dep is nil, including a typed nil behind an interface
func absent(dep any) bool {
	if dep == nil {
		return true
	}
	v := reflect.ValueOf(dep)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
