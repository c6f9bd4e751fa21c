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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consoleclient "github.com/campushub/school-management-platform/console-client/clients/consolesvc/client"
)

func cachedEnvelope(body string) *consoleclient.Envelope {
	return &consoleclient.Envelope{Data: json.RawMessage(body), StatusCode: 200}
}

func TestQueryCache(t *testing.T) {
	t.Run("Stores and retrieves within the TTL", func(t *testing.T) {
		cache := NewQueryCache(time.Minute)
		cache.Set("GET /students", cachedEnvelope(`{"list":[]}`))

		env, ok := cache.Get("GET /students")
		require.True(t, ok)
		assert.JSONEq(t, `{"list":[]}`, string(env.Data))
		assert.Equal(t, 1, cache.Size())
	})

	t.Run("Misses on unknown keys", func(t *testing.T) {
		cache := NewQueryCache(time.Minute)

		_, ok := cache.Get("GET /teachers")
		assert.False(t, ok)
	})

	t.Run("Expired entries miss", func(t *testing.T) {
		cache := NewQueryCache(10 * time.Millisecond)
		cache.Set("GET /students", cachedEnvelope(`{}`))

		time.Sleep(20 * time.Millisecond)

		_, ok := cache.Get("GET /students")
		assert.False(t, ok)
	})

	t.Run("Invalidate removes a single key", func(t *testing.T) {
		cache := NewQueryCache(time.Minute)
		cache.Set("GET /students", cachedEnvelope(`{}`))
		cache.Set("GET /teachers", cachedEnvelope(`{}`))

		cache.Invalidate("GET /students")

		_, ok := cache.Get("GET /students")
		assert.False(t, ok)
		_, ok = cache.Get("GET /teachers")
		assert.True(t, ok)
	})

	t.Run("InvalidateAll empties the cache", func(t *testing.T) {
		cache := NewQueryCache(time.Minute)
		cache.Set("GET /students", cachedEnvelope(`{}`))
		cache.Set("GET /teachers", cachedEnvelope(`{}`))

		cache.InvalidateAll()

		assert.Zero(t, cache.Size())
	})
}
