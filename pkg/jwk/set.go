package jwk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Set is a JWK set as defined in RFC 7517: an ordered collection of
// public keys with lookup by derived key ID.
//
// A set is a best-effort cache of verification candidates, not an
// atomic unit: decoding silently drops any element that fails to
// parse as a supported public key.
//
// https://datatracker.ietf.org/doc/html/rfc7517#section-5
type Set struct {
	// Keys is the list of public keys in the set.
	//
	// https://datatracker.ietf.org/doc/html/rfc7517#section-5.1
	Keys []PublicKey `json:"keys"`
}

// UnmarshalJSON decodes a JWK set leniently: elements that do not
// parse as supported public keys are skipped rather than failing the
// whole set.
func (s *Set) UnmarshalJSON(data []byte) error {
	raw := struct {
		Keys []json.RawMessage `json:"keys"`
	}{}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("jwk: failed to decode JWK set JSON: %w", err)
	}

	keys := make([]PublicKey, 0, len(raw.Keys))

	for _, element := range raw.Keys {
		k, err := ParsePublicKey(element)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}

	s.Keys = keys
	return nil
}

// Validate checks that the set contains at least one usable key.
func (s *Set) Validate() error {
	if len(s.Keys) == 0 {
		return fmt.Errorf("jwk: no key values in JWK set")
	}
	return nil
}

// Find returns the first key in the set whose derived key ID equals
// the given kid.
func (s *Set) Find(kid string) (PublicKey, error) {
	for _, k := range s.Keys {
		if k.KeyID() == kid {
			return k, nil
		}
	}

	return PublicKey{}, fmt.Errorf("jwk: key %q not found in set", kid)
}

// FetchSet fetches a JWK set from the given URL and HTTP client.
func FetchSet(ctx context.Context, url string, client *http.Client) (*Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK set request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch JWK set: %s", resp.Status)
	}

	var set Set
	err = json.NewDecoder(resp.Body).Decode(&set)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWK set: %w", err)
	}

	err = set.Validate()
	if err != nil {
		return nil, fmt.Errorf("failed to validate JWK set: %w", err)
	}

	return &set, nil
}

// URLSetCache is a cache of JWK sets keyed by URL that can be easily used to verify
// JWTs from multiple issuers. It handles refreshing the JWK sets when they expire,
// retrying failed fetches, and caching the JWK sets for a configurable amount of time.
//
// The core operations of this package are pure and synchronous; the
// cache is the network wrapper for callers that need remote key sets,
// with the timeout and retry policy kept out of the key model itself.
type URLSetCache struct {
	mutex sync.RWMutex

	// sets is a map of JWK sets keyed by URL.
	sets map[string]*Set

	// cacheTimes is a map of JWK set cache times keyed by URL.
	cacheTimes map[string]time.Time

	// client is the HTTP client used to fetch JWK sets.
	client *http.Client

	// refreshInterval is the amount of time between refreshing JWK sets.
	refreshInterval time.Duration

	// cacheDuration is the amount of time to cache JWK sets.
	cacheDuration time.Duration
}

// NewURLSetCache returns a new JWK set cache.
func NewURLSetCache(client *http.Client, refreshInterval, cacheDuration time.Duration) *URLSetCache {
	return &URLSetCache{
		mutex:           sync.RWMutex{},
		sets:            make(map[string]*Set),
		cacheTimes:      make(map[string]time.Time),
		client:          client,
		refreshInterval: refreshInterval,
		cacheDuration:   cacheDuration,
	}
}

// Get returns the JWK set for the given URL, fetching it if it is not already cached.
func (c *URLSetCache) Get(ctx context.Context, url string) (*Set, error) {
	c.mutex.RLock()
	set, cached := c.sets[url]
	expiry := c.cacheTimes[url]
	c.mutex.RUnlock()

	// If there's no set or the set is expired, fetch a fresh copy.
	if !cached || time.Now().After(expiry) {
		return c.Fetch(ctx, url)
	}
	return set, nil
}

// GetKey returns the first key from the JWK set for the given URL whose derived
// key ID matches the given kid, fetching the JWK set if it is not already cached.
func (c *URLSetCache) GetKey(ctx context.Context, url string, kid string) (PublicKey, error) {
	c.mutex.RLock()
	set, ok := c.sets[url]
	urlCacheTime := c.cacheTimes[url]
	c.mutex.RUnlock()

	if !ok {
		var err error
		set, err = c.Fetch(ctx, url)
		if err != nil {
			return PublicKey{}, fmt.Errorf("failed to fetch JWK set: %w", err)
		}
	}

	if time.Now().After(urlCacheTime) {
		var err error
		set, err = c.Refresh(ctx, url)
		if err != nil {
			return PublicKey{}, fmt.Errorf("failed to refresh JWK set: %w", err)
		}
	}

	k, err := set.Find(kid)
	if err != nil {
		return PublicKey{}, fmt.Errorf("failed to get key %q from JWK set: %w", kid, err)
	}

	return k, nil
}

// Range iterates over the JWK sets in the cache, calling the given function for each
// URL and key. If the function returns false, the iteration will stop.
func (c *URLSetCache) Range(fn func(url string, key PublicKey) bool) {
	if fn == nil || c == nil {
		return
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for url, set := range c.sets {
		for _, k := range set.Keys {
			if !fn(url, k) {
				return
			}
		}
	}
}

// Fetch fetches the JWK set for the given URL.
func (c *URLSetCache) Fetch(ctx context.Context, url string) (*Set, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	set, err := FetchSet(ctx, url, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK set: %w", err)
	}

	c.sets[url] = set
	c.cacheTimes[url] = time.Now().Add(c.cacheDuration)

	return set, nil
}

// Refresh refreshes the JWK set for the given URL.
func (c *URLSetCache) Refresh(ctx context.Context, url string) (*Set, error) {
	return c.Fetch(ctx, url)
}

// RefreshAll refreshes all JWK sets in the cache.
func (c *URLSetCache) RefreshAll(ctx context.Context) error {
	c.mutex.RLock()
	urls := make([]string, 0, len(c.sets))
	for url := range c.sets {
		urls = append(urls, url)
	}
	c.mutex.RUnlock()

	for _, url := range urls {
		if _, err := c.Refresh(ctx, url); err != nil {
			return fmt.Errorf("failed to refresh JWK set for %q: %w", url, err)
		}
	}
	return nil
}

// Start starts the JWK set cache, refreshing the JWK sets at the given interval.
// It will block until the context is canceled, and will only return an error if
// the refresh fails, possibly due to a network error.
//
// Most callers will want to call this in a goroutine after creating the cache.
func (c *URLSetCache) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := c.RefreshAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to refresh JWK sets: %w", err)
			}
		}
	}
}
