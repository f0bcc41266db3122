package compute

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
)

func TestWriteSnippetRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	s := &Service{snippetsDir: dir}
	id := idgen.New()

	path, err := s.writeSnippet(id, "first")
	if err != nil {
		t.Fatalf("writeSnippet: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("snippet written outside snippetsDir: %s", path)
	}

	if _, err := s.writeSnippet(id, "second"); err == nil {
		t.Fatalf("expected an error overwriting an existing snippet")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snippet: %v", err)
	}
	if string(content) != "first" {
		t.Fatalf("snippet content changed after failed overwrite: %q", content)
	}
}

func TestDeleteSnippetToleratesMissingFile(t *testing.T) {
	s := &Service{snippetsDir: t.TempDir()}
	if err := s.deleteSnippet(idgen.New()); err != nil {
		t.Fatalf("deleteSnippet on a missing file returned an error: %v", err)
	}
}

func TestDeleteSnippetRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := &Service{snippetsDir: dir}
	id := idgen.New()

	path, err := s.writeSnippet(id, "content")
	if err != nil {
		t.Fatalf("writeSnippet: %v", err)
	}
	if err := s.deleteSnippet(id); err != nil {
		t.Fatalf("deleteSnippet: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("snippet still exists after delete")
	}
}

func TestCloudInitSnippetEmbedsHostnameAndKey(t *testing.T) {
	doc := cloudInitSnippet("web-01", "ssh-ed25519 AAAA...")
	if !strings.Contains(doc, "hostname: web-01") {
		t.Errorf("snippet missing hostname: %s", doc)
	}
	if !strings.Contains(doc, "ssh-ed25519 AAAA...") {
		t.Errorf("snippet missing ssh key: %s", doc)
	}
}
