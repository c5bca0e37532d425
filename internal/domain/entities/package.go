package entities

// Package is one released unit: a name bound to a single repository working tree.
type Package struct {
	Name         string
	Path         string
	Dependencies []string
	Branch       string
}

// BumpPart selects which version component a release advances.
type BumpPart string

const (
	BumpMajor BumpPart = "major"
	BumpMinor BumpPart = "minor"
	BumpPatch BumpPart = "patch"
)

// ParseBumpPart validates a user supplied bump directive.
func ParseBumpPart(raw string) (BumpPart, error) {
	switch part := BumpPart(raw); part {
	case BumpMajor, BumpMinor, BumpPatch:
		return part, nil
	default:
		return "", Errorf(UserInputErr, "invalid bump part %q (expected major, minor or patch)", raw)
	}
}
