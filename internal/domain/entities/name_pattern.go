package entities

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

// NamePattern recognises fleet package names. Like a Python re.match, it only
// matches at the start of the subject.
type NamePattern struct {
	expr string
	re   *regexp.Regexp
}

// CompileNamePattern compiles the configured package name regular expression.
func CompileNamePattern(expr string) (*NamePattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return nil, Errorf(ConfigErr, "invalid 'packagename_regex': %q\n%s", expr, caretUnder(expr, err))
	}
	return &NamePattern{expr: expr, re: re}, nil
}

// MatchPrefix returns the package name found at the start of s.
func (p *NamePattern) MatchPrefix(s string) (string, bool) {
	loc := p.re.FindStringIndex(s)
	if loc == nil || loc[1] == 0 {
		return "", false
	}
	return s[:loc[1]], true
}

func (p *NamePattern) String() string { return p.expr }

// caretUnder points at the offending fragment of a bad expression when the
// syntax error names one.
func caretUnder(expr string, err error) string {
	var syntaxErr *syntax.Error
	if !errors.As(err, &syntaxErr) || syntaxErr.Expr == "" {
		return err.Error()
	}
	pos := strings.Index(expr, syntaxErr.Expr)
	if pos < 0 {
		return err.Error()
	}
	return fmt.Sprintf("%s\n%s^ %s", expr, strings.Repeat(" ", pos), syntaxErr.Code)
}

// AlternateName swaps hyphens and underscores, the two spellings packaging
// tools treat as the same distribution name.
func AlternateName(name string) string {
	if strings.Contains(name, "-") {
		return strings.ReplaceAll(name, "-", "_")
	}
	return strings.ReplaceAll(name, "_", "-")
}

// LookupVersion finds name in versions, retrying with the alternate spelling on a miss.
func LookupVersion(versions map[string]string, name string) (string, bool) {
	if version, ok := versions[name]; ok {
		return version, true
	}
	version, ok := versions[AlternateName(name)]
	return version, ok
}
