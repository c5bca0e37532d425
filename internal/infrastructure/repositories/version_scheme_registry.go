package repositories

import (
	"sort"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	domainRepos "github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// VersionSchemeRegistry manages all registered version scheme implementations.
type VersionSchemeRegistry struct {
	schemes map[string]domainRepos.VersionSchemeRepository
}

// NewVersionSchemeRegistry creates an empty scheme registry.
func NewVersionSchemeRegistry() *VersionSchemeRegistry {
	return &VersionSchemeRegistry{
		schemes: make(map[string]domainRepos.VersionSchemeRepository),
	}
}

// Register adds a scheme under its name.
func (r *VersionSchemeRegistry) Register(s domainRepos.VersionSchemeRepository) {
	r.schemes[s.Name()] = s
}

// Get returns the scheme with the given name.
func (r *VersionSchemeRegistry) Get(name string) (domainRepos.VersionSchemeRepository, error) {
	s, ok := r.schemes[name]
	if !ok {
		return nil, entities.Errorf(entities.ConfigErr, "unknown version scheme %q (known: %v)", name, r.Names())
	}
	return s, nil
}

// Names returns the sorted list of registered scheme names.
func (r *VersionSchemeRegistry) Names() []string {
	names := make([]string, 0, len(r.schemes))
	for name := range r.schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
