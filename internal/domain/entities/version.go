package entities

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"
)

// canonicalVersion turns a tag such as "0.7.2", "v1.2" or "1.0.0-rc.1" into the
// "v"-prefixed form golang.org/x/mod/semver understands.
func canonicalVersion(tag string) (string, bool) {
	candidate := strings.TrimSpace(tag)
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if !modsemver.IsValid(candidate) {
		return "", false
	}
	return candidate, true
}

// LatestVersionTag returns the greatest tag by parsed version, ignoring tags
// that are not versions. Equal versions spelled differently ("0.1" and
// "0.1.0") resolve to the lexically greater spelling.
func LatestVersionTag(tags []string) (string, bool) {
	var (
		best      string
		bestCanon string
	)
	for _, tag := range tags {
		canon, ok := canonicalVersion(tag)
		if !ok {
			continue
		}
		if bestCanon == "" {
			best, bestCanon = tag, canon
			continue
		}
		cmp := modsemver.Compare(canon, bestCanon)
		if cmp > 0 || (cmp == 0 && tag > best) {
			best, bestCanon = tag, canon
		}
	}
	return best, bestCanon != ""
}

// SameVersion compares two version strings by value.
func SameVersion(a, b string) bool {
	canonA, okA := canonicalVersion(a)
	canonB, okB := canonicalVersion(b)
	if !okA || !okB {
		return a == b
	}
	return modsemver.Compare(canonA, canonB) == 0
}

// BumpVersion advances one component of current and renders it as MAJOR.MINOR.PATCH.
func BumpVersion(current string, part BumpPart) (string, error) {
	version, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", current, err)
	}

	var next semver.Version
	switch part {
	case BumpMajor:
		next = version.IncMajor()
	case BumpMinor:
		next = version.IncMinor()
	case BumpPatch:
		next = version.IncPatch()
	default:
		return "", fmt.Errorf("unknown bump part %q", part)
	}
	return next.String(), nil
}

// BaseVersion strips pre-release and build metadata: "1.2.3-rc.1" -> "1.2.3".
func BaseVersion(current string) (string, error) {
	version, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", current, err)
	}
	return fmt.Sprintf("%d.%d.%d", version.Major(), version.Minor(), version.Patch()), nil
}

// RepositoryState is what the version schemes need to know about a working tree.
type RepositoryState struct {
	CurrentTag string // empty when the repository has no version tag
	Distance   int    // commits reachable from HEAD but not from CurrentTag
	Dirty      bool   // tracked files modified
	Branch     string // checked-out branch, empty on a detached HEAD
}

// HasUnreleasedChanges reports whether anything happened since the last tag.
func (s RepositoryState) HasUnreleasedChanges() bool {
	return s.CurrentTag == "" || s.Distance > 0 || s.Dirty
}

// BaseTag is the version the schemes bump from.
func (s RepositoryState) BaseTag() string {
	if s.CurrentTag == "" {
		return "0.0.0"
	}
	return s.CurrentTag
}
