package rpc

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSPolicyHandlerSetsAllowOriginOnPreflight(t *testing.T) {
	policy := CORSPolicy{
		AllowedOrigins: []string{"https://console.example.com"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	handler := policy.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("the wrapped handler should not run for an OPTIONS preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/controlplane.v1.ControlPlane/CreateInstance", nil)
	req.Header.Set("Origin", "https://console.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want the preflighting origin", got)
	}
}

func TestCORSPolicyHandlerRejectsUnknownOrigin(t *testing.T) {
	policy := CORSPolicy{AllowedOrigins: []string{"https://console.example.com"}}
	handler := policy.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want empty for a disallowed origin", got)
	}
}
