// Copyright (c) 2026, CampusHub Inc. (https://www.campushub.io).
//
// CampusHub Inc. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package services

import (
	"log/slog"
	"sync"
	"time"

	consoleclient "github.com/campushub/school-management-platform/console-client/clients/consolesvc/client"
)

// QueryCacheEntry is a cached query result with its fetch time.
type QueryCacheEntry struct {
	Envelope *consoleclient.Envelope
	CachedAt time.Time
}

// QueryCache provides thread-safe caching of query results keyed by cache
// key. All entries are treated as tenant- or branch-scoped, so the switch
// coordinators discard everything on any switch rather than attempting
// fine-grained scoping.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*QueryCacheEntry
	ttl     time.Duration
}

// Compile-time check that QueryCache implements Invalidator
var _ Invalidator = (*QueryCache)(nil)

// NewQueryCache creates a new query cache with specified TTL
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		entries: make(map[string]*QueryCacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached envelope by key if still valid
func (c *QueryCache) Get(key string) (*consoleclient.Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	// Check if entry is still valid based on TTL
	if time.Since(entry.CachedAt) > c.ttl {
		return nil, false
	}

	return entry.Envelope, true
}

// Set adds or updates a cached envelope
func (c *QueryCache) Set(key string, env *consoleclient.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &QueryCacheEntry{
		Envelope: env,
		CachedAt: time.Now(),
	}
}

// Invalidate removes a specific entry
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// InvalidateAll discards every cached result. Fired on tenant and branch
// switches so stale scoped data is re-fetched on next read.
func (c *QueryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]*QueryCacheEntry)
	if count > 0 {
		slog.Info("query cache invalidated", "discarded", count)
	}
}

// Size returns the current number of cached entries
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
