// Package registry reads package metadata from an npm-compatible registry.
package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cmccoy02/bridge-engine/domain"
)

const (
	// DefaultBaseURL is the public npm registry endpoint.
	DefaultBaseURL = "https://registry.npmjs.org"

	// DefaultTimeout bounds a single metadata request. The registry is a
	// rate-limited third party; a slow response is treated like a miss.
	DefaultTimeout = 5 * time.Second

	// DefaultBatchSize is how many packages are fetched concurrently.
	DefaultBatchSize = 5

	retryMax = 2
)

// Client implements domain.MetadataSource against an npm registry.
// Every failure mode (network, parse, timeout, non-200) degrades to the
// zero metadata — metadata absence never blocks a scan.
type Client struct {
	baseURL   string
	timeout   time.Duration
	batchSize int
	http      *retryablehttp.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the registry endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithBatchSize overrides the concurrent fetch batch size.
func WithBatchSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// NewClient creates a registry metadata client.
func NewClient(opts ...Option) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = retryMax
	httpClient.Logger = nil

	c := &Client{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		batchSize: DefaultBatchSize,
		http:      httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.HTTPClient.Timeout = c.timeout
	return c
}

var _ domain.MetadataSource = (*Client)(nil)

// packument is the subset of the registry document the engine reads.
type packument struct {
	Description string                    `json:"description"`
	DistTags    map[string]string         `json:"dist-tags"`
	Versions    map[string]packumentEntry `json:"versions"`
}

type packumentEntry struct {
	// Deprecated is a string message for deprecated versions; some
	// registries emit a boolean instead.
	Deprecated       any               `json:"deprecated"`
	Description      string            `json:"description"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Fetch returns the metadata for one package, or the zero metadata on any
// failure.
func (c *Client) Fetch(ctx context.Context, name string) domain.PackageMetadata {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(name)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Debugf("[registry] Failed to build request for %q: %v", name, err)
		return domain.PackageMetadata{}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debugf("[registry] Failed to fetch metadata for %q: %v", name, err)
		return domain.PackageMetadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debugf("[registry] Unexpected status %d for %q", resp.StatusCode, name)
		return domain.PackageMetadata{}
	}

	var doc packument
	if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr != nil {
		logger.Debugf("[registry] Failed to parse metadata for %q: %v", name, decodeErr)
		return domain.PackageMetadata{}
	}

	return metadataFromPackument(&doc)
}

// FetchAll fetches metadata for many packages in fixed-size concurrent
// batches to respect registry rate limits.
func (c *Client) FetchAll(ctx context.Context, names []string) map[string]domain.PackageMetadata {
	results := make(map[string]domain.PackageMetadata, len(names))
	var mu sync.Mutex

	for start := 0; start < len(names); start += c.batchSize {
		end := start + c.batchSize
		if end > len(names) {
			end = len(names)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, name := range names[start:end] {
			name := name
			group.Go(func() error {
				meta := c.Fetch(groupCtx, name)
				mu.Lock()
				results[name] = meta
				mu.Unlock()
				return nil
			})
		}
		_ = group.Wait()
	}

	return results
}

// metadataFromPackument extracts the latest version's deprecation flag and
// peer dependency names from a registry document.
func metadataFromPackument(doc *packument) domain.PackageMetadata {
	meta := domain.PackageMetadata{Description: doc.Description}

	latest, ok := doc.Versions[doc.DistTags["latest"]]
	if !ok {
		return meta
	}

	meta.Deprecated = isDeprecated(latest.Deprecated)
	if meta.Description == "" {
		meta.Description = latest.Description
	}
	for peer := range latest.PeerDependencies {
		meta.PeerDependencies = append(meta.PeerDependencies, peer)
	}
	sort.Strings(meta.PeerDependencies)
	return meta
}

// isDeprecated interprets the registry's deprecated field, which is a
// message string for deprecated versions but occasionally a boolean.
func isDeprecated(value any) bool {
	switch v := value.(type) {
	case string:
		return v != ""
	case bool:
		return v
	default:
		return false
	}
}
