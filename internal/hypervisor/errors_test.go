package hypervisor

import (
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		location   string
		wantCode   string
	}{
		{name: "ok", statusCode: 200, wantCode: ""},
		{
			name:       "invalid",
			statusCode: 400,
			body:       `{"message":"vmid already in use","errors":{"vmid":"taken"}}`,
			wantCode:   "HypervisorInvalidRequest",
		},
		{name: "unauthorized", statusCode: 401, wantCode: "HypervisorUnauthorized"},
		{
			name:       "guarded by idp",
			statusCode: 302,
			location:   "https://example.cloudflareaccess.com/login",
			wantCode:   "HypervisorGuardedByIdp",
		},
		{
			name:       "unexpected redirect",
			statusCode: 302,
			location:   "https://evil.example.com/",
			wantCode:   "HypervisorUnexpectedRedirect",
		},
		{
			name:       "missing agent",
			statusCode: 500,
			body:       "No QEMU guest agent configured\n",
			wantCode:   "MissingAgent",
		},
		{
			name:       "vm config not found",
			statusCode: 500,
			body:       "Configuration file 'nodes/pve1/qemu-server/101.conf' does not exist\n",
			wantCode:   "VmNotFound",
		},
		{
			name:       "vm not running",
			statusCode: 500,
			body:       "VM 101 is not running\n",
			wantCode:   "VmNotRunning",
		},
		{
			name:       "other internal",
			statusCode: 500,
			body:       "panic: something broke\n",
			wantCode:   "HypervisorInternal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyResponse(tt.statusCode, []byte(tt.body), tt.location)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("classifyResponse() = %v, want nil", err)
				}
				return
			}
			appErr, ok := apperr.As(err)
			if !ok {
				t.Fatalf("classifyResponse() = %v, want *apperr.Error", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestVMNotFoundCarriesID(t *testing.T) {
	err := classifyResponse(500, []byte("Configuration file 'nodes/pve1/qemu-server/101.conf' does not exist\n"), "")
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("classifyResponse() = %v, want *apperr.Error", err)
	}
	if appErr.Message != "vm 101 not found on hypervisor" {
		t.Errorf("Message = %q, want mention of vm 101", appErr.Message)
	}
}
