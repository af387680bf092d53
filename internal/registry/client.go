// Package registry resolves the latest published version of npm packages.
//
// Resolution consults the on-disk version cache first, then falls back to the
// npm CLI: a single combined query for small sets, and a bounded parallel
// fan-out for everything else. Per-package failures degrade to an unknown
// result; they never abort a run.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voltup/voltup/internal/cache"
)

const (
	// DefaultTimeout bounds each individual registry query.
	DefaultTimeout = 10 * time.Second
	// DefaultWorkers is the parallel fan-out width.
	DefaultWorkers = 10
	// DefaultBatchMax is the largest set resolved with one combined npm
	// call. The limit is empirical (npm's multi-package --json output gets
	// unreliable beyond a handful of names), not a hard ceiling.
	DefaultBatchMax = 4

	maxRetries = 2
)

// retryDelays backs off between attempts of a single-package query.
var defaultRetryDelays = []time.Duration{500 * time.Millisecond, time.Second}

// Runner executes the npm binary. Tests substitute a fake.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func runNPM(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "npm", args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("npm %s failed: %w (stderr: %s)",
				strings.Join(args, " "), err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("npm %s failed: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// Options configure a Client. Zero values select the documented defaults.
type Options struct {
	TTL      time.Duration // cache freshness window, default 1h
	Workers  int           // parallel fan-out width, default 10
	BatchMax int           // combined-query threshold, default 4
}

// Client resolves latest versions with cache write-through.
type Client struct {
	cache       *cache.Cache // nil disables caching
	ttl         time.Duration
	workers     int
	batchMax    int
	timeout     time.Duration
	runner      Runner
	retryDelays []time.Duration
}

// New validates opts and returns a Client. versionCache may be nil to bypass
// caching entirely. Invalid option values are programmer errors and fail
// fast here, before any work begins.
func New(versionCache *cache.Cache, opts Options) (*Client, error) {
	if opts.TTL < 0 {
		return nil, fmt.Errorf("invalid cache TTL %s: must not be negative", opts.TTL)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must be positive", opts.Workers)
	}
	if opts.BatchMax < 0 {
		return nil, fmt.Errorf("invalid batch size %d: must be positive", opts.BatchMax)
	}

	c := &Client{
		cache:       versionCache,
		ttl:         opts.TTL,
		workers:     opts.Workers,
		batchMax:    opts.BatchMax,
		timeout:     DefaultTimeout,
		runner:      runNPM,
		retryDelays: defaultRetryDelays,
	}
	if c.ttl == 0 {
		c.ttl = cache.DefaultTTL
	}
	if c.workers == 0 {
		c.workers = DefaultWorkers
	}
	if c.batchMax == 0 {
		c.batchMax = DefaultBatchMax
	}

	return c, nil
}

// SetRunner replaces the subprocess runner, for tests.
func (c *Client) SetRunner(runner Runner) { c.runner = runner }

// SetTimeout overrides the per-query timeout, for tests.
func (c *Client) SetTimeout(timeout time.Duration) { c.timeout = timeout }

// SetRetryDelays overrides the retry backoff, for tests.
func (c *Client) SetRetryDelays(delays []time.Duration) { c.retryDelays = delays }

// ResolveOne queries the registry for a single package. Timeouts, subprocess
// errors, and empty output all report ok=false; the caller never sees an
// error. Transient failures are retried with a short backoff.
func (c *Client) ResolveOne(ctx context.Context, name string) (string, bool) {
	for attempt := 0; ; attempt++ {
		version, ok := c.resolveOnce(ctx, name)
		if ok {
			return version, true
		}
		if attempt >= maxRetries || ctx.Err() != nil {
			return "", false
		}
		if attempt < len(c.retryDelays) {
			select {
			case <-time.After(c.retryDelays[attempt]):
			case <-ctx.Done():
				return "", false
			}
		}
	}
}

func (c *Client) resolveOnce(ctx context.Context, name string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := c.runner(ctx, "view", name, "version")
	if err != nil {
		return "", false
	}

	version := strings.TrimSpace(string(output))
	if version == "" {
		return "", false
	}
	return version, true
}

// resolveBatch attempts one combined npm call for the whole set. Any failure
// of the combined call, including a response missing some name, fails the
// batch as a whole; the caller falls back to the parallel path. Batches are
// never partially salvaged.
func (c *Client) resolveBatch(ctx context.Context, names []string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*c.timeout)
	defer cancel()

	args := append([]string{"view", "--json"}, names...)
	args = append(args, "version")

	output, err := c.runner(ctx, args...)
	if err != nil {
		return nil, err
	}

	return parseBatchResponse(output, names)
}

// parseBatchResponse handles the two shapes npm emits: a single object (or
// bare string) for one name, and an array aligned with the input order for
// several names.
func parseBatchResponse(output []byte, names []string) (map[string]string, error) {
	versions := make(map[string]string, len(names))

	if len(names) == 1 {
		var obj struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(output, &obj); err == nil && obj.Version != "" {
			versions[names[0]] = obj.Version
			return versions, nil
		}

		var bare string
		if err := json.Unmarshal(output, &bare); err == nil && bare != "" {
			versions[names[0]] = bare
			return versions, nil
		}

		return nil, fmt.Errorf("unexpected batch response for %s", names[0])
	}

	var entries []struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	if len(entries) != len(names) {
		return nil, fmt.Errorf("batch response has %d entries, expected %d", len(entries), len(names))
	}

	for i, name := range names {
		if entries[i].Version == "" {
			return nil, fmt.Errorf("batch response missing version for %s", name)
		}
		versions[name] = entries[i].Version
	}

	return versions, nil
}

// Resolve returns the latest version for every name. The result always has
// exactly one entry per input name; an empty string marks a package whose
// resolution failed or timed out.
//
// Fresh cache entries short-circuit the network. Small uncached sets go
// through one combined query; on batch failure, and for larger sets, a
// bounded worker pool resolves each name independently with its own timeout.
// onProgress, when non-nil, is invoked after each completed query with the
// running and total counts.
func (c *Client) Resolve(ctx context.Context, names []string, onProgress func(done, total int)) map[string]string {
	results := make(map[string]string, len(names))

	var misses []string
	for _, name := range names {
		if c.cache != nil {
			if version, ok := c.cache.Get(name, c.ttl); ok {
				results[name] = version
				continue
			}
		}
		misses = append(misses, name)
	}

	if len(misses) == 0 {
		return results
	}

	if len(misses) <= c.batchMax {
		if batch, err := c.resolveBatch(ctx, misses); err == nil {
			for name, version := range batch {
				results[name] = version
				c.cachePut(name, version)
			}
			if onProgress != nil {
				onProgress(len(misses), len(misses))
			}
			return results
		}
		// Batch failed; the parallel path below resolves the same set.
	}

	total := len(misses)
	var completed int64
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, name := range misses {
		name := name
		g.Go(func() error {
			version, ok := c.ResolveOne(ctx, name)
			if ok {
				c.cachePut(name, version)
			}

			mu.Lock()
			if ok {
				results[name] = version
			} else {
				results[name] = ""
			}
			mu.Unlock()

			if onProgress != nil {
				onProgress(int(atomic.AddInt64(&completed, 1)), total)
			}
			return nil
		})
	}

	// Workers never return errors; failures are recorded as unknowns.
	_ = g.Wait()

	return results
}

func (c *Client) cachePut(name, version string) {
	if c.cache == nil {
		return
	}
	// Cache writes are best effort; a failed write only costs a re-fetch.
	_ = c.cache.Put(name, version)
}
