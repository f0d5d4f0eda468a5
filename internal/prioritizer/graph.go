package prioritizer

import (
	"sort"
	"strings"

	"github.com/cmccoy02/bridge-engine/domain"
)

// knownPeers is the static table of well-known companion relationships:
// packages that are expected to move together. Entries are directional;
// symmetric pairs appear twice.
var knownPeers = map[string][]string{
	"react":                  {"react-dom"},
	"react-dom":              {"react"},
	"next":                   {"react", "react-dom"},
	"react-router-dom":       {"react"},
	"react-redux":            {"react", "redux"},
	"@testing-library/react": {"react", "react-dom"},
	"vue-router":             {"vue"},
	"vuex":                   {"vue"},
	"pinia":                  {"vue"},
	"nuxt":                   {"vue"},
	"@angular/router":        {"@angular/core"},
	"@angular/forms":         {"@angular/core"},
	"@angular/common":        {"@angular/core"},
}

// resolvePeers returns the static peer group for a package, expanding the
// type-definition wildcard: @types/foo is always a peer of foo.
func resolvePeers(name string) []string {
	peers := knownPeers[name]
	if base, ok := strings.CutPrefix(name, typeDefinitionsPrefix); ok {
		peers = append(peers, base)
	}
	return peers
}

// BuildBlockingGraph fills in the BlockedBy and Blocks relations across an
// enriched set. A package is blocked by a peer when the peer is present in
// the set and itself has an unresolved major-version gap. Blocks is derived
// as the exact inverse in a second pass, which is required because the
// inverse cannot be known until every BlockedBy set is finalized.
func BuildBlockingGraph(packages []*domain.EnrichedPackage) {
	byName := make(map[string]*domain.EnrichedPackage, len(packages))
	for _, pkg := range packages {
		byName[pkg.Name] = pkg
	}

	for _, pkg := range packages {
		for _, peerName := range resolvePeers(pkg.Name) {
			peer, present := byName[peerName]
			if !present || peer.Distance.Major == 0 {
				continue
			}
			pkg.BlockedBy = append(pkg.BlockedBy, peerName)
		}
		sort.Strings(pkg.BlockedBy)
	}

	for _, pkg := range packages {
		for _, blockerName := range pkg.BlockedBy {
			blocker := byName[blockerName]
			blocker.Blocks = append(blocker.Blocks, pkg.Name)
		}
	}
	for _, pkg := range packages {
		sort.Strings(pkg.Blocks)
	}
}
