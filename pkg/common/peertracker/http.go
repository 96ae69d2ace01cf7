package peertracker

import (
	"context"
	"net"
)

type callerKey struct{}

// ConnContext is an http.Server ConnContext hook. It stores the caller of
// connections accepted by Listener in the request context.
func ConnContext(ctx context.Context, conn net.Conn) context.Context {
	if c, ok := conn.(*Conn); ok {
		return context.WithValue(ctx, callerKey{}, c.Info.Caller)
	}
	return ctx
}

// CallerFromHTTPContext returns the caller stored by ConnContext.
func CallerFromHTTPContext(ctx context.Context) (CallerInfo, bool) {
	caller, ok := ctx.Value(callerKey{}).(CallerInfo)
	return caller, ok
}
