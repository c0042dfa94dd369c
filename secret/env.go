package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves references against environment variables.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an env provider. prefix, if set, is prepended to
// every reference before lookup.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the referenced variable.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	key := p.prefix + strings.TrimSpace(ref)
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret env: variable %s is not set", key)
	}
	return v, nil
}

// Close is a no-op.
func (p *EnvProvider) Close() error { return nil }

func newEnvProviderFromConfig(cfg map[string]any) (Provider, error) {
	prefix, _ := cfg["prefix"].(string)
	return NewEnvProvider(prefix), nil
}
