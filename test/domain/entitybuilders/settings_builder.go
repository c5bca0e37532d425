//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

const (
	defaultNamePattern = "[a-z][a-z0-9_-]*"
	defaultBranch      = "master"
)

// SettingsBuilder helps create fleet settings with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	pattern            string
	packages           []entities.Package
	defaultBranch      string
	validationPatterns []string
}

// NewSettingsBuilder creates a new settings builder with an empty fleet.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		pattern:       defaultNamePattern,
		defaultBranch: defaultBranch,
	}
}

// WithNamePattern sets packagename_regex.
func (b *SettingsBuilder) WithNamePattern(pattern string) *SettingsBuilder {
	b.pattern = pattern
	return b
}

// WithPackage appends a package released from the default branch.
func (b *SettingsBuilder) WithPackage(name, path string, dependencies ...string) *SettingsBuilder {
	b.packages = append(b.packages, entities.Package{Name: name, Path: path, Dependencies: dependencies})
	return b
}

// WithBranch overrides the release branch of an already added package.
func (b *SettingsBuilder) WithBranch(name, branch string) *SettingsBuilder {
	for i := range b.packages {
		if b.packages[i].Name == name {
			b.packages[i].Branch = branch
		}
	}
	return b
}

// WithValidationPatterns sets validation_patterns.
func (b *SettingsBuilder) WithValidationPatterns(patterns ...string) *SettingsBuilder {
	b.validationPatterns = patterns
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type. It panics
// on an invalid name pattern, which is a bug in the test itself.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	pattern, err := entities.CompileNamePattern(b.pattern)
	if err != nil {
		panic(err)
	}
	settings := &entities.Settings{
		ConfigPath:         "pyproject.toml",
		NamePattern:        pattern,
		Repos:              make(map[string]string, len(b.packages)),
		DependencyGraph:    make(entities.DependencyGraph, len(b.packages)),
		DefaultBranch:      b.defaultBranch,
		Branches:           make(map[string]string, len(b.packages)),
		ValidationPatterns: append([]string(nil), b.validationPatterns...),
	}
	for _, pkg := range b.packages {
		settings.Order = append(settings.Order, pkg.Name)
		settings.Repos[pkg.Name] = pkg.Path
		settings.DependencyGraph[pkg.Name] = append([]string{}, pkg.Dependencies...)
		branch := pkg.Branch
		if branch == "" {
			branch = b.defaultBranch
		}
		settings.Branches[pkg.Name] = branch
	}
	return settings
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.pattern = defaultNamePattern
	b.packages = nil
	b.defaultBranch = defaultBranch
	b.validationPatterns = nil
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder:        b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		pattern:            b.pattern,
		packages:           append([]entities.Package(nil), b.packages...),
		defaultBranch:      b.defaultBranch,
		validationPatterns: append([]string(nil), b.validationPatterns...),
	}
}
