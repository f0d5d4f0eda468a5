package domain

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"
)

// VersionDistance measures how far a current version lags behind the
// latest one. When a major boundary is crossed the minor/patch components
// are the latest version's absolute values, since finer-grained distance
// inside the old major is meaningless.
type VersionDistance struct {
	Major       int
	Minor       int
	Patch       int
	TotalBehind int
}

// Weights used to fold a distance into a single sortable number.
// TotalBehind is only ever averaged or sorted, never shown to users.
const (
	majorWeight = 100
	minorWeight = 10
)

// Distance computes the VersionDistance between two npm version strings.
// Range qualifiers (^, ~, >=, ...) and pre-release suffixes are stripped
// before parsing; missing numeric components default to zero. Malformed
// input never causes an error: it yields the zero distance.
func Distance(current, latest string) VersionDistance {
	cur, okCur := parseVersion(current)
	lat, okLat := parseVersion(latest)
	if !okCur || !okLat {
		return VersionDistance{}
	}

	// A latest that is equal to or behind current is the zero distance;
	// comparing minor or patch across unequal majors is meaningless.
	var dist VersionDistance
	switch {
	case lat.Major() > cur.Major():
		dist.Major = int(lat.Major() - cur.Major())
		dist.Minor = int(lat.Minor())
		dist.Patch = int(lat.Patch())
	case lat.Major() < cur.Major():
	case lat.Minor() > cur.Minor():
		dist.Minor = int(lat.Minor() - cur.Minor())
		dist.Patch = int(lat.Patch())
	case lat.Minor() < cur.Minor():
	case lat.Patch() > cur.Patch():
		dist.Patch = int(lat.Patch() - cur.Patch())
	}

	dist.TotalBehind = dist.Major*majorWeight + dist.Minor*minorWeight + dist.Patch
	return dist
}

// IsNewerVersion reports whether latest is strictly newer than current.
func IsNewerVersion(current, latest string) bool {
	cur := normalizeVersion(current)
	lat := normalizeVersion(latest)

	if modsemver.IsValid(cur) && modsemver.IsValid(lat) {
		return modsemver.Compare(lat, cur) > 0
	}

	// Fall back to string comparison for non-semver versions.
	return latest > current
}

// parseVersion cleans an npm version or range string and parses it into
// a semver value. The second return is false when nothing parseable is left.
func parseVersion(raw string) (*semver.Version, bool) {
	cleaned := cleanVersion(raw)
	if cleaned == "" {
		return nil, false
	}
	v, err := semver.NewVersion(cleaned)
	if err != nil {
		return nil, false
	}
	return v, true
}

// cleanVersion strips range qualifiers, the leading "v", and any
// pre-release or build suffix from an npm version string.
func cleanVersion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "^~=<> ")
	s = strings.TrimPrefix(s, "v")

	if idx := strings.IndexAny(s, "-+ "); idx >= 0 {
		s = s[:idx]
	}
	return s
}

// normalizeVersion ensures a version has the 'v' prefix required by
// golang.org/x/mod/semver.
func normalizeVersion(version string) string {
	cleaned := cleanVersion(version)
	if cleaned == "" {
		return cleaned
	}
	return "v" + cleaned
}
