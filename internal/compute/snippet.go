package compute

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

// writeSnippet materialises a cloud-init snippet at snippets/<id>.yaml
// under the service's snippets directory. It refuses to overwrite an
// existing snippet — a collision means an earlier creation attempt for the
// same id left debris behind, which is a bug worth surfacing rather than
// silently clobbering.
func (s *Service) writeSnippet(id idgen.ID, content string) (string, error) {
	path := filepath.Join(s.snippetsDir, fmt.Sprintf("%s.yaml", id.String()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", apperr.Internal(fmt.Sprintf("snippet %s already exists", path))
		}
		return "", fmt.Errorf("creating snippet %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("writing snippet %s: %w", path, err)
	}
	return path, nil
}

// deleteSnippet removes a previously-written snippet. A missing file is not
// an error — cleanup after a failed VMCreate may race with cleanup after a
// later instance delete.
func (s *Service) deleteSnippet(id idgen.ID) error {
	path := filepath.Join(s.snippetsDir, fmt.Sprintf("%s.yaml", id.String()))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snippet %s: %w", path, err)
	}
	return nil
}

// cloudInitSnippet renders the user-data document passed to the guest via
// cicustom. hostname and sshKey are baked in; a richer template (network
// config, extra users) is a natural follow-up once a concrete need for it
// shows up.
func cloudInitSnippet(hostname, sshKey string) string {
	return fmt.Sprintf(`#cloud-config
hostname: %s
ssh_authorized_keys:
  - %s
`, hostname, sshKey)
}
