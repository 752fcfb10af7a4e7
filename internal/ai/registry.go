package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Factory builds a Provider for one backend. An empty model selects the
// backend's configured default.
type Factory func(ctx context.Context, model string) (Provider, error)

// Registry routes provider names (ollama, openrouter) to factories. Names
// are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Settings holds the backend endpoints and default models the built-in
// factories need. Both cmd binaries fill this from config.
type Settings struct {
	OllamaBaseURL string
	OllamaModel   string

	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string
}

// NewDefaultRegistry wires the two supported backends. The per-call model
// override falls back to the configured default when empty.
func NewDefaultRegistry(s Settings) *Registry {
	r := NewRegistry()

	r.Register("ollama", func(ctx context.Context, model string) (Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = s.OllamaModel
		}
		return NewOllamaProvider(s.OllamaBaseURL, m), nil
	})

	r.Register("openrouter", func(ctx context.Context, model string) (Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = s.OpenRouterModel
		}
		return NewOpenRouterProvider(
			s.OpenRouterBaseURL, s.OpenRouterAPIKey, m,
			s.OpenRouterSiteURL, s.OpenRouterAppName,
		), nil
	})

	return r
}

func (r *Registry) Register(name string, f Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds a provider for the named backend, or errors for names no
// factory claims.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q", name)
	}
	return f(ctx, model)
}
