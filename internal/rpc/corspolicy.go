package rpc

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSPolicy describes the allowed-origin surface for the grpc-web edge: a
// browser client speaks grpc-web (JSON/text-encoded, proxied over plain
// HTTP) rather than native gRPC-over-HTTP/2, so the edge that terminates
// that traffic needs ordinary CORS headers the gRPC wire protocol itself
// has no concept of.
type CORSPolicy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Handler wraps next with the configured CORS policy.
func (p CORSPolicy) Handler(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   p.AllowedOrigins,
		AllowedMethods:   p.AllowedMethods,
		AllowedHeaders:   p.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(next)
}
