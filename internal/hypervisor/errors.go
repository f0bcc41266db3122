package hypervisor

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// identityProviderHosts are redirect targets the hypervisor sends a caller
// to when it requires interactive identity-provider authentication. A 302
// to any other host is an unexpected redirect, not a login challenge.
var identityProviderHosts = []string{"cloudflareaccess.com"}

var (
	missingAgentRe  = regexp.MustCompile(`^No QEMU guest agent configured\n$`)
	vmConfigNotFoud = regexp.MustCompile(`^Configuration file 'nodes/.*?/qemu-server/(\d+)\.conf' does not exist\n$`)
	vmNotRunningRe  = regexp.MustCompile(`^VM (\d+) is not running\n$`)
)

// invalidBody is the shape of a 400 response's payload.
type invalidBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// classifyResponse is the authoritative mapping from an HTTP response to
// either nil (a 200, whose body the caller decodes) or a typed
// *apperr.Error. Every endpoint method
// in this package routes its response through it before touching the body
// for anything else.
func classifyResponse(statusCode int, body []byte, location string) error {
	switch {
	case statusCode == 200:
		return nil
	case statusCode == 400:
		var inv invalidBody
		if err := json.Unmarshal(body, &inv); err != nil || inv.Message == "" {
			return apperr.HypervisorInvalidRequest(string(body))
		}
		return apperr.HypervisorInvalidRequest(inv.Message)
	case statusCode == 401:
		return apperr.HypervisorUnauthorized()
	case statusCode == 302:
		if isIdentityProviderRedirect(location) {
			return apperr.HypervisorGuardedByIDP()
		}
		return apperr.HypervisorUnexpectedRedirect(location)
	case statusCode == 500:
		return classify500(body)
	default:
		return apperr.HypervisorInternal(string(body))
	}
}

func classify500(body []byte) error {
	text := string(body)
	switch {
	case missingAgentRe.MatchString(text):
		return apperr.MissingAgent()
	case vmConfigNotFoud.MatchString(text):
		m := vmConfigNotFoud.FindStringSubmatch(text)
		return apperr.VMNotFound(m[1])
	case vmNotRunningRe.MatchString(text):
		m := vmNotRunningRe.FindStringSubmatch(text)
		return apperr.VMNotRunning(m[1])
	default:
		return apperr.HypervisorInternal(text)
	}
}

func isIdentityProviderRedirect(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	for _, host := range identityProviderHosts {
		if strings.HasSuffix(u.Hostname(), host) {
			return true
		}
	}
	return false
}
