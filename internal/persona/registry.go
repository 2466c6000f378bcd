package persona

import (
	"os"
	"path/filepath"
	"strings"

	"unified-assistant/internal/models"

	"go.uber.org/zap"
)

// Registry maps each domain to its persona. Built once at startup and
// read-only afterwards, so concurrent lookups need no locking.
type Registry struct {
	personas map[models.Domain]Persona
}

// NewRegistry builds the registry from built-in defaults. If templateDir is
// non-empty, per-domain system prompt overrides are loaded from
// {templateDir}/{domain}_system.txt when present.
func NewRegistry(templateDir string, logger *zap.Logger) *Registry {
	personas := defaults()

	if templateDir != "" {
		for domain, p := range personas {
			path := filepath.Join(templateDir, strings.ToLower(string(domain))+"_system.txt")
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			p.SystemPrompt = strings.TrimSpace(string(data))
			personas[domain] = p
			logger.Info("Loaded persona prompt override",
				zap.String("domain", string(domain)),
				zap.String("file", path),
			)
		}
	}

	return &Registry{personas: personas}
}

// PersonaFor returns the persona configured for the domain.
func (r *Registry) PersonaFor(domain models.Domain) (Persona, error) {
	p, ok := r.personas[domain]
	if !ok {
		return Persona{}, models.ErrDomainNotConfigured
	}
	return p, nil
}

// Domains returns the configured domains in registry order.
func (r *Registry) Domains() []models.Domain {
	var out []models.Domain
	for _, d := range models.Domains() {
		if _, ok := r.personas[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
