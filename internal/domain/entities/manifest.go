package entities

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the per-repository manifest holding dependencies and the version scheme.
const ManifestFile = "pyproject.toml"

// Manifest is the subset of pyproject.toml the release engine reads.
type Manifest struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		SetuptoolsSCM struct {
			VersionScheme string `toml:"version_scheme"`
		} `toml:"setuptools_scm"`
	} `toml:"tool"`
}

// DecodeManifest parses pyproject.toml content.
func DecodeManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if _, err := toml.Decode(string(data), &manifest); err != nil {
		return nil, Errorf(ConfigErr, "invalid %s: %w", ManifestFile, err)
	}
	return &manifest, nil
}

// UpdateDependencies pins every fleet entry of [project].dependencies to
// "name>=version" using versions. Only the bytes of rewritten string elements
// change; comments, spacing and line endings elsewhere are kept as they are.
// The second result is false when the output equals the input.
func UpdateDependencies(
	data []byte,
	pattern *NamePattern,
	versions map[string]string,
) ([]byte, bool, error) {
	manifest, err := DecodeManifest(data)
	if err != nil {
		return nil, false, err
	}

	elements, err := findDependencyStrings(data)
	if err != nil {
		return nil, false, Errorf(ConfigErr, "%s: %w", ManifestFile, err)
	}
	if len(elements) != len(manifest.Project.Dependencies) {
		return nil, false, Errorf(ConfigErr,
			"%s: found %d dependency strings, expected %d",
			ManifestFile, len(elements), len(manifest.Project.Dependencies))
	}

	var out bytes.Buffer
	out.Grow(len(data))
	last, changed := 0, false
	for _, element := range elements {
		name, ok := pattern.MatchPrefix(element.value)
		if !ok {
			continue
		}
		version, found := LookupVersion(versions, name)
		if !found {
			return nil, false, Errorf(ConfigErr,
				"%s: dependency %q matches the package name pattern but is not a known package", ManifestFile, name)
		}
		replacement := name + ">=" + version
		if replacement == element.value {
			continue
		}
		out.Write(data[last:element.start])
		out.WriteString(element.delimiter)
		out.WriteString(replacement)
		out.WriteString(element.delimiter)
		last = element.end
		changed = true
	}
	if !changed {
		return data, false, nil
	}
	out.Write(data[last:])
	return out.Bytes(), true, nil
}

// stringElement is a string literal found in the dependencies array.
type stringElement struct {
	start, end int // byte span including delimiters
	delimiter  string
	value      string
}

var errUnterminated = errors.New("unterminated string")

// tomlScanner walks a TOML document just far enough to find the
// [project] dependencies array without re-serialising anything.
type tomlScanner struct {
	data  []byte
	pos   int
	table string
}

func findDependencyStrings(data []byte) ([]stringElement, error) {
	s := &tomlScanner{data: data}
	for s.pos < len(s.data) {
		s.skipBlank()
		if s.pos >= len(s.data) {
			break
		}
		switch s.data[s.pos] {
		case '#':
			s.skipComment()
		case '[':
			if err := s.readHeader(); err != nil {
				return nil, err
			}
		default:
			key, err := s.readKey()
			if err != nil {
				return nil, err
			}
			s.skipInline()
			if s.isDependencies(key) && s.at('[') {
				return s.readStringArray()
			}
			if s.table == "" && key == "project" && s.at('{') {
				elements, found, inlineErr := s.readInlineDependencies()
				if found || inlineErr != nil {
					return elements, inlineErr
				}
				continue
			}
			if err = s.skipValue(); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

func (s *tomlScanner) isDependencies(key string) bool {
	return (s.table == "project" && key == "dependencies") ||
		(s.table == "" && key == "project.dependencies")
}

func (s *tomlScanner) at(c byte) bool {
	return s.pos < len(s.data) && s.data[s.pos] == c
}

// readInlineDependencies looks for the dependencies array inside
// `project = { ... }`, leaving pos after the closing brace when there is none.
func (s *tomlScanner) readInlineDependencies() ([]stringElement, bool, error) {
	s.pos++ // '{'
	for s.pos < len(s.data) {
		s.skipBlank()
		switch {
		case s.at('}'):
			s.pos++
			return nil, false, nil
		case s.at(','):
			s.pos++
			continue
		}

		key, err := s.readKey()
		if err != nil {
			return nil, false, err
		}
		s.skipInline()
		if key == "dependencies" && s.at('[') {
			elements, arrayErr := s.readStringArray()
			return elements, true, arrayErr
		}
		if err = s.skipInlineValue(); err != nil {
			return nil, false, err
		}
	}
	return nil, false, errors.New("unterminated inline table 'project'")
}

// skipInlineValue advances to the ',' or '}' ending one inline table value.
func (s *tomlScanner) skipInlineValue() error {
	depth := 0
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '"', '\'':
			if _, err := s.readString(); err != nil {
				return err
			}
			continue
		case '#':
			s.skipComment()
			continue
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				return nil
			}
			depth--
		case ',':
			if depth == 0 {
				return nil
			}
		}
		s.pos++
	}
	return errors.New("unterminated inline table 'project'")
}

func (s *tomlScanner) skipBlank() {
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

func (s *tomlScanner) skipInline() {
	for s.pos < len(s.data) && (s.data[s.pos] == ' ' || s.data[s.pos] == '\t') {
		s.pos++
	}
}

func (s *tomlScanner) skipComment() {
	for s.pos < len(s.data) && s.data[s.pos] != '\n' {
		s.pos++
	}
}

func (s *tomlScanner) readHeader() error {
	end := bytes.IndexByte(s.data[s.pos:], '\n')
	if end < 0 {
		end = len(s.data) - s.pos
	}
	line := string(s.data[s.pos : s.pos+end])
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	name := strings.Trim(strings.TrimSpace(line), "[]")
	s.table = normaliseKey(name)
	s.pos += end
	return nil
}

func (s *tomlScanner) readKey() (string, error) {
	start := s.pos
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '=':
			key := normaliseKey(string(s.data[start:s.pos]))
			s.pos++
			return key, nil
		case '"', '\'':
			if _, err := s.readString(); err != nil {
				return "", err
			}
			continue
		case '\n':
			return "", fmt.Errorf("expected '=' after key %q", strings.TrimSpace(string(s.data[start:s.pos])))
		}
		s.pos++
	}
	return "", errors.New("unexpected end of document after key")
}

// normaliseKey renders `"project" . dependencies` as project.dependencies.
func normaliseKey(raw string) string {
	parts := strings.Split(raw, ".")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"'`)
	}
	return strings.Join(parts, ".")
}

// skipValue advances past one value, including nested arrays and inline tables.
func (s *tomlScanner) skipValue() error {
	depth := 0
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '"', '\'':
			if _, err := s.readString(); err != nil {
				return err
			}
			continue
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case '#':
			s.skipComment()
			continue
		case '\n':
			if depth <= 0 {
				return nil
			}
		}
		s.pos++
	}
	return nil
}

func (s *tomlScanner) readStringArray() ([]stringElement, error) {
	s.pos++ // '['
	var elements []stringElement
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ']':
			return elements, nil
		case '#':
			s.skipComment()
		case '"', '\'':
			element, err := s.readString()
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
		default:
			s.pos++
		}
	}
	return nil, errors.New("unterminated dependencies array")
}

// readString consumes a basic, literal or multi-line string starting at pos.
func (s *tomlScanner) readString() (stringElement, error) {
	start := s.pos
	quote := s.data[s.pos]
	delimiter := string(quote)
	if bytes.HasPrefix(s.data[s.pos:], []byte{quote, quote, quote}) {
		delimiter = strings.Repeat(delimiter, 3) //nolint:mnd // triple-quoted string
	}
	s.pos += len(delimiter)
	contentStart := s.pos

	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '\\' && quote == '"' {
			s.pos += 2
			continue
		}
		if c == '\n' && len(delimiter) == 1 {
			return stringElement{}, errUnterminated
		}
		if bytes.HasPrefix(s.data[s.pos:], []byte(delimiter)) {
			raw := string(s.data[contentStart:s.pos])
			s.pos += len(delimiter)
			return stringElement{
				start:     start,
				end:       s.pos,
				delimiter: delimiter,
				value:     decodeStringValue(raw, quote, len(delimiter) > 1),
			}, nil
		}
		s.pos++
	}
	return stringElement{}, errUnterminated
}

func decodeStringValue(raw string, quote byte, multiline bool) string {
	if multiline {
		raw = strings.TrimPrefix(strings.TrimPrefix(raw, "\r"), "\n")
	}
	if quote == '\'' || !strings.Contains(raw, `\`) {
		return raw
	}
	if unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(raw, "\n", `\n`) + `"`); err == nil {
		return unquoted
	}
	return raw
}
