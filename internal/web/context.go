package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/csvdml/internal/core"
)

// WithRequestMetadata adds the client IP to ctx for conversion history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClientIP(ctx, clientIP(r))
}

// clientIP returns the caller's address without a port. RemoteAddr has
// already been rewritten by TrustedRealIP when the request came via a
// trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
