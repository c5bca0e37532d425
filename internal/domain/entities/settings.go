package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/mapstructure"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultBranch = "master"
	sectionTool   = "tool"
	sectionName   = "conductor"
	pyprojectFile = "pyproject.toml"
)

// Settings is the validated fleet configuration.
type Settings struct {
	ConfigPath         string
	NamePattern        *NamePattern
	Repos              map[string]string
	Order              []string
	DependencyGraph    DependencyGraph
	DefaultBranch      string
	Branches           map[string]string
	ValidationPatterns []string
}

// rawSettings mirrors the keys accepted in [tool.conductor] or a YAML file.
type rawSettings struct {
	PackageNameRegex   *string             `mapstructure:"packagename_regex"`
	Repos              map[string]string   `mapstructure:"repos"`
	DependencyGraph    map[string][]string `mapstructure:"dependency_graph"`
	DefaultBranch      string              `mapstructure:"default_branch"`
	Branches           map[string]string   `mapstructure:"branches"`
	ValidationPatterns []string            `mapstructure:"validation_patterns"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads, validates and normalises the configuration file at path.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf(ConfigErr, "failed to read config file %q: %w", path, err)
	}

	var (
		section map[string]any
		order   []string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		section, order, err = decodeYAMLSection(data)
	default:
		section, order, err = decodeTOMLSection(data, filepath.Base(path) == pyprojectFile)
	}
	if err != nil {
		return nil, Errorf(ConfigErr, "failed to parse config file %q: %w", path, err)
	}

	var raw rawSettings
	if decodeErr := mapstructure.Decode(section, &raw); decodeErr != nil {
		return nil, Errorf(ConfigErr, "invalid 'tool.conductor' section in %q: %w", path, decodeErr)
	}

	return buildSettings(path, &raw, order)
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	locations := []string{".", ".config", "configs"}
	patterns := []string{
		pyprojectFile,
		"conductor.toml",
		".conductor.yaml",
		".conductor.yml",
		"conductor.yaml",
		"conductor.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", Errorf(ConfigErr, "config file not found in default locations")
}

// decodeTOMLSection returns the conductor table and the document order of its repos.
func decodeTOMLSection(data []byte, requireSection bool) (map[string]any, []string, error) {
	var root map[string]any
	meta, err := toml.Decode(string(data), &root)
	if err != nil {
		return nil, nil, err
	}

	prefix := []string{}
	section := root
	if nested, ok := lookupTable(root, sectionTool, sectionName); ok {
		prefix = []string{sectionTool, sectionName}
		section = nested
	} else if requireSection {
		return nil, nil, errors.New("missing section 'tool.conductor'")
	}

	reposKey := append(append([]string{}, prefix...), "repos")
	var order []string
	for _, key := range meta.Keys() {
		if len(key) == len(reposKey)+1 && sameKey(key[:len(reposKey)], reposKey) {
			order = append(order, key[len(key)-1])
		}
	}
	return section, order, nil
}

// decodeYAMLSection mirrors decodeTOMLSection for YAML documents, which may
// either hold the keys at the root or under tool.conductor.
func decodeYAMLSection(data []byte) (map[string]any, []string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	path := []string{"repos"}
	section := root
	if nested, ok := lookupTable(root, sectionTool, sectionName); ok {
		path = []string{sectionTool, sectionName, "repos"}
		section = nested
	}
	return section, yamlKeyOrder(&doc, path), nil
}

func lookupTable(root map[string]any, keys ...string) (map[string]any, bool) {
	current := root
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func sameKey(a toml.Key, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// yamlKeyOrder walks path through mapping nodes and returns the keys of the last mapping.
func yamlKeyOrder(node *yaml.Node, path []string) []string {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for _, key := range path {
		node = yamlChild(node, key)
		if node == nil {
			return nil
		}
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	order := make([]string, 0, len(node.Content)/2) //nolint:mnd // key/value pairs
	for i := 0; i+1 < len(node.Content); i += 2 {
		order = append(order, node.Content[i].Value)
	}
	return order
}

func yamlChild(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func buildSettings(path string, raw *rawSettings, order []string) (*Settings, error) {
	missing := fmt.Sprintf("missing config 'tool.conductor.%%s' in %q", path)
	if raw.PackageNameRegex == nil {
		return nil, Errorf(ConfigErr, missing, "packagename_regex")
	}
	if raw.Repos == nil {
		return nil, Errorf(ConfigErr, missing, "repos")
	}
	if raw.DependencyGraph == nil {
		return nil, Errorf(ConfigErr, missing, "dependency_graph")
	}

	pattern, err := CompileNamePattern(*raw.PackageNameRegex)
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		ConfigPath:         path,
		NamePattern:        pattern,
		Repos:              make(map[string]string, len(raw.Repos)),
		Order:              completeOrder(order, raw.Repos),
		DependencyGraph:    DependencyGraph(raw.DependencyGraph),
		DefaultBranch:      raw.DefaultBranch,
		Branches:           make(map[string]string, len(raw.Repos)),
		ValidationPatterns: raw.ValidationPatterns,
	}
	if settings.DefaultBranch == "" {
		settings.DefaultBranch = defaultBranch
	}

	baseDir := filepath.Dir(path)
	for name, repoPath := range raw.Repos {
		settings.Repos[name] = resolvePath(baseDir, repoPath)
	}
	for name := range raw.Repos {
		settings.Branches[name] = settings.DefaultBranch
	}
	for name, branch := range raw.Branches {
		settings.Branches[name] = branch
	}

	if validateErr := Validate(settings); validateErr != nil {
		return nil, validateErr
	}
	return settings, nil
}

// completeOrder keeps the document order and appends any key the decoder did
// not report, sorted, so every repository is visited exactly once.
func completeOrder(order []string, repos map[string]string) []string {
	seen := make(map[string]bool, len(repos))
	result := make([]string, 0, len(repos))
	for _, name := range order {
		if _, ok := repos[name]; ok && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	var rest []string
	for name := range repos {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(result, rest...)
}

// resolvePath expands ${ENV_VAR} and ~ and anchors relative paths to the config directory.
func resolvePath(baseDir, raw string) string {
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if resolved == "~" || strings.HasPrefix(resolved, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			resolved = filepath.Join(home, strings.TrimPrefix(resolved, "~"))
		}
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(baseDir, resolved)
	}
	return filepath.Clean(resolved)
}

// Validate checks package names and graph references. Every offending section
// is reported in one error.
func Validate(settings *Settings) error {
	var problems []string

	if unknown := unmatchedNames(settings.NamePattern, sortedKeys(settings.Repos)); len(unknown) > 0 {
		problems = append(problems, unknownNamesMessage("repos", unknown))
	}
	if unknown := unmatchedNames(settings.NamePattern, sortedKeys(settings.Branches)); len(unknown) > 0 {
		problems = append(problems, unknownNamesMessage("branches", unknown))
	}
	if unknown := unmatchedNames(settings.NamePattern, sortedKeys(settings.DependencyGraph)); len(unknown) > 0 {
		problems = append(problems, unknownNamesMessage("dependency_graph", unknown))
	}

	var dangling []string
	for _, name := range sortedKeys(settings.DependencyGraph) {
		for _, dep := range settings.DependencyGraph[name] {
			if _, ok := settings.DependencyGraph[dep]; !ok {
				dangling = append(dangling, fmt.Sprintf("%s -> %s", name, dep))
			}
		}
	}
	if len(dangling) > 0 {
		problems = append(problems,
			"Undeclared dependencies in 'tool.conductor.dependency_graph': "+strings.Join(dangling, ", "))
	}

	var ungraphed []string
	for _, name := range settings.Order {
		if _, ok := settings.DependencyGraph[name]; !ok {
			ungraphed = append(ungraphed, name)
		}
	}
	if len(ungraphed) > 0 {
		problems = append(problems,
			"Packages missing from 'tool.conductor.dependency_graph': "+strings.Join(ungraphed, ", "))
	}

	for _, pattern := range settings.ValidationPatterns {
		if !doublestar.ValidatePattern(pattern) {
			problems = append(problems, fmt.Sprintf("Invalid glob in 'tool.conductor.validation_patterns': %q", pattern))
		}
	}

	if len(problems) > 0 {
		return Errorf(ConfigErr, "%s", strings.Join(problems, "\n"))
	}
	return nil
}

// Filter narrows the released packages. only and exclude are mutually exclusive.
// The dependency graph is kept whole so rewrites can still resolve every name.
func (s *Settings) Filter(only, exclude []string) (*Settings, error) {
	if len(only) > 0 && len(exclude) > 0 {
		return nil, Errorf(UserInputErr, "`--only` and `--exclude` are mutually exclusive")
	}
	for _, name := range append(append([]string{}, only...), exclude...) {
		if _, ok := s.Repos[name]; !ok {
			return nil, Errorf(ConfigErr, "unknown package %q (not in 'tool.conductor.repos')", name)
		}
	}

	keep := func(string) bool { return true }
	switch {
	case len(only) > 0:
		keep = func(name string) bool { return contains(only, name) }
	case len(exclude) > 0:
		keep = func(name string) bool { return !contains(exclude, name) }
	}

	filtered := *s
	filtered.Repos = make(map[string]string)
	filtered.Branches = make(map[string]string)
	filtered.Order = nil
	for _, name := range s.Order {
		if !keep(name) {
			continue
		}
		filtered.Order = append(filtered.Order, name)
		filtered.Repos[name] = s.Repos[name]
		filtered.Branches[name] = s.Branches[name]
	}
	return &filtered, nil
}

// Packages returns the configured packages in configuration order.
func (s *Settings) Packages() []Package {
	packages := make([]Package, 0, len(s.Order))
	for _, name := range s.Order {
		packages = append(packages, Package{
			Name:         name,
			Path:         s.Repos[name],
			Dependencies: s.DependencyGraph[name],
			Branch:       s.Branches[name],
		})
	}
	return packages
}

// NeedsValidation reports whether path matches one of the validation_patterns.
func (s *Settings) NeedsValidation(path string) bool {
	for _, pattern := range s.ValidationPatterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func unmatchedNames(pattern *NamePattern, names []string) []string {
	var unknown []string
	for _, name := range names {
		if _, ok := pattern.MatchPrefix(name); !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func unknownNamesMessage(key string, names []string) string {
	return fmt.Sprintf("Unknown package names in 'tool.conductor.%s': %s", key, strings.Join(names, ", "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
