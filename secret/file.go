package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider resolves references to file contents, as mounted by
// Docker and Kubernetes secrets.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a file provider. When dir is set, references are
// paths relative to it and may not escape it; otherwise references are
// used as given.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Name returns "file".
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the referenced file. A single trailing newline is dropped.
func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path, err := p.path(ref)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path) // #nosec G304 -- path is operator-configured.
	if err != nil {
		return "", fmt.Errorf("secret file: %w", err)
	}
	s := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

func (p *FileProvider) path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("secret file: path is required")
	}
	if p.dir == "" {
		return ref, nil
	}
	if filepath.IsAbs(ref) {
		return "", fmt.Errorf("secret file: %q must be relative to %s", ref, p.dir)
	}
	clean := filepath.Clean(ref)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("secret file: %q escapes %s", ref, p.dir)
	}
	return filepath.Join(p.dir, clean), nil
}

// Close is a no-op.
func (p *FileProvider) Close() error { return nil }

func newFileProviderFromConfig(cfg map[string]any) (Provider, error) {
	dir, _ := cfg["dir"].(string)
	return NewFileProvider(dir), nil
}
