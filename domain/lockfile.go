package domain

import "sort"

// ResolvedPackage is one entry in a lockfile snapshot.
type ResolvedPackage struct {
	Version string
	IsDev   bool
}

// LockfileSnapshot is a point-in-time mapping of package name to resolved
// version, captured from the dependency-resolution artifact.
type LockfileSnapshot map[string]ResolvedPackage

// DiffSnapshots compares two lockfile snapshots by name and returns one
// PackageChange per version bump, sorted by package name. A package counts
// as changed only when it is present in both snapshots with different
// resolved versions; additions and removals are deliberately not reported
// so the change summary stays focused on upgrades.
func DiffSnapshots(before, after LockfileSnapshot) []PackageChange {
	var changes []PackageChange

	for name, prev := range before {
		next, ok := after[name]
		if !ok || next.Version == prev.Version {
			continue
		}
		changes = append(changes, PackageChange{
			Name:  name,
			From:  prev.Version,
			To:    next.Version,
			IsDev: next.IsDev,
		})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Name < changes[j].Name
	})
	return changes
}
