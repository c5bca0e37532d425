package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OutcomeKind is the terminal state of one package in the tag engine.
type OutcomeKind string

const (
	OutcomeTagged  OutcomeKind = "tagged"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeAborted OutcomeKind = "aborted"
)

// TagOutcome records what happened to one package. Only Tagged outcomes
// reach the summary.
type TagOutcome struct {
	Package string
	Remote  string
	Kind    OutcomeKind
	Version string
	Reason  string
}

// Tagged records a package tagged with version.
func Tagged(pkg, remote, version string) TagOutcome {
	return TagOutcome{Package: pkg, Remote: remote, Kind: OutcomeTagged, Version: version}
}

// Skipped records a package left untagged without an error.
func Skipped(pkg, reason string) TagOutcome {
	return TagOutcome{Package: pkg, Kind: OutcomeSkipped, Reason: reason}
}

// Aborted records a package whose tagging was abandoned.
func Aborted(pkg, reason string) TagOutcome {
	return TagOutcome{Package: pkg, Kind: OutcomeAborted, Reason: reason}
}

type summaryEntry struct {
	remote  string
	version string
}

// TagSummary maps repository remote identifiers to released versions, in the
// order the packages were tagged. It has no failure channel: a package that was
// not released is simply absent.
type TagSummary struct {
	entries []summaryEntry
}

// NewTagSummary keeps the Tagged outcomes. A repeated remote keeps its first position.
func NewTagSummary(outcomes []TagOutcome) *TagSummary {
	summary := &TagSummary{}
	for _, outcome := range outcomes {
		if outcome.Kind == OutcomeTagged {
			summary.set(outcome.Remote, outcome.Version)
		}
	}
	return summary
}

func (s *TagSummary) set(remote, version string) {
	for i := range s.entries {
		if s.entries[i].remote == remote {
			s.entries[i].version = version
			return
		}
	}
	s.entries = append(s.entries, summaryEntry{remote: remote, version: version})
}

// Len returns the number of released packages.
func (s *TagSummary) Len() int { return len(s.entries) }

// Get returns the version released for remote.
func (s *TagSummary) Get(remote string) (string, bool) {
	for _, entry := range s.entries {
		if entry.remote == remote {
			return entry.version, true
		}
	}
	return "", false
}

// Remotes returns the remote identifiers in order.
func (s *TagSummary) Remotes() []string {
	remotes := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		remotes = append(remotes, entry.remote)
	}
	return remotes
}

// MarshalJSON writes an object with four-space indentation, keys in insertion order.
func (s *TagSummary) MarshalJSON() ([]byte, error) {
	if len(s.entries) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, entry := range s.entries {
		key, err := json.Marshal(entry.remote)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.version)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "    %s: %s", key, value)
		if i < len(s.entries)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat string-to-string object, keeping key order.
func (s *TagSummary) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.New("tag summary must be a JSON object")
	}

	s.entries = nil
	for decoder.More() {
		keyToken, keyErr := decoder.Token()
		if keyErr != nil {
			return keyErr
		}
		var version string
		if valueErr := decoder.Decode(&version); valueErr != nil {
			return fmt.Errorf("tag summary value for %v: %w", keyToken, valueErr)
		}
		s.set(keyToken.(string), version) //nolint:forcetypeassert // object keys are strings
	}
	_, err = decoder.Token()
	return err
}
