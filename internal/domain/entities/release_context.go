package entities

// ReleaseContext carries everything a release run reads, passed explicitly
// into each step instead of living in package state.
type ReleaseContext struct {
	Settings   *Settings // filtered to the released packages
	Fleet      *Settings // the whole fleet, used for read-only planning
	Bump       BumpPart
	OutputPath string
}

// IsSelected reports whether name is released this round.
func (c ReleaseContext) IsSelected(name string) bool {
	_, ok := c.Settings.Repos[name]
	return ok
}
