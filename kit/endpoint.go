// Package kit provides the transport-agnostic plumbing shared by the
// scriptshelf services: context keys for request metadata, the Endpoint
// abstraction with middleware chaining, and the MCP tool bridge.
package kit

import "context"

// Endpoint is a transport-agnostic operation: decode happens before,
// encode after, so the same Endpoint can back an HTTP route and an MCP tool.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first middleware is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
