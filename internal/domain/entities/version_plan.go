package entities

// PlannedRelease is one row of the version plan.
type PlannedRelease struct {
	Package     Package
	CurrentTag  string // empty when the repository has no version tag
	NextVersion string
	Selected    bool // false for packages filtered out with --only/--exclude
}

// IsNoOp reports whether the package has nothing to release this round.
func (r PlannedRelease) IsNoOp() bool {
	return r.CurrentTag != "" && SameVersion(r.CurrentTag, r.NextVersion)
}

// VersionPlan is computed once per run and never mutated afterwards. Every
// constraint rewrite reads its target versions from here, whatever order the
// packages are processed in.
type VersionPlan struct {
	releases []PlannedRelease
	versions map[string]string
}

// NewVersionPlan freezes releases into a plan.
func NewVersionPlan(releases []PlannedRelease) *VersionPlan {
	plan := &VersionPlan{
		releases: append([]PlannedRelease(nil), releases...),
		versions: make(map[string]string, len(releases)),
	}
	for _, release := range plan.releases {
		plan.versions[release.Package.Name] = release.rewriteTarget()
	}
	return plan
}

// rewriteTarget is the version dependents must require. Packages outside the
// selection are not released this round, so dependents keep to their current tag.
func (r PlannedRelease) rewriteTarget() string {
	if !r.Selected && r.CurrentTag != "" {
		return r.CurrentTag
	}
	return r.NextVersion
}

// Releases returns the selected releases in configuration order.
func (p *VersionPlan) Releases() []PlannedRelease {
	selected := make([]PlannedRelease, 0, len(p.releases))
	for _, release := range p.releases {
		if release.Selected {
			selected = append(selected, release)
		}
	}
	return selected
}

// NextVersions returns a copy of the name -> target version map used for rewrites.
func (p *VersionPlan) NextVersions() map[string]string {
	versions := make(map[string]string, len(p.versions))
	for name, version := range p.versions {
		versions[name] = version
	}
	return versions
}
