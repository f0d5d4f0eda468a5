package domain

import "context"

// PackageMetadata is what the package registry knows about a package.
// The zero value is the graceful-degradation default used whenever the
// registry cannot be reached: metadata absence never blocks scoring.
type PackageMetadata struct {
	Deprecated       bool
	PeerDependencies []string
	Description      string
}

// MetadataSource reads package metadata from a registry.
type MetadataSource interface {
	// Fetch returns the metadata for one package. Implementations must
	// absorb network, parse, and timeout failures and return the zero
	// metadata instead of an error.
	Fetch(ctx context.Context, name string) PackageMetadata

	// FetchAll returns metadata for many packages, fetched with bounded
	// concurrency to respect registry rate limits.
	FetchAll(ctx context.Context, names []string) map[string]PackageMetadata
}
