package entities

import (
	"fmt"
	"strings"
)

const commitHeader = `# Please enter the commit message for your changes. Lines starting
# with '#' will be ignored, and an empty message aborts the commit.
#`

// CommitTemplate is the text handed to the editor before a release commit.
func CommitTemplate(version, repoPath, status string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Release %s\n\n\n", version)
	sb.WriteString(commitHeader)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "# Repository: %s\n", repoPath)
	for _, line := range strings.Split(strings.TrimRight(status, "\n"), "\n") {
		sb.WriteString("# ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// StripComments drops every line starting with '#'.
func StripComments(edited string) string {
	lines := strings.SplitAfter(edited, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "")
}

// IsBlankMessage reports whether msg would make an empty commit.
func IsBlankMessage(msg string) bool {
	return strings.TrimSpace(msg) == ""
}
