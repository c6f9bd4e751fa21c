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

package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenTenantID(t *testing.T) {
	t.Run("Reads the tenant claim", func(t *testing.T) {
		token := signedTestToken(t, "T7", time.Now().Add(time.Hour))

		tenantID, err := TokenTenantID(token)
		require.NoError(t, err)
		assert.Equal(t, "T7", tenantID)
	})

	t.Run("Token without the claim yields an empty string", func(t *testing.T) {
		token := signedTestToken(t, "", time.Now().Add(time.Hour))

		tenantID, err := TokenTenantID(token)
		require.NoError(t, err)
		assert.Empty(t, tenantID)
	})

	t.Run("Malformed token is an error", func(t *testing.T) {
		_, err := TokenTenantID("not.a.jwt")
		assert.Error(t, err)
	})
}

func TestTokenExpiryEpochMs(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedTestToken(t, "T1", expiresAt)
	assert.Equal(t, expiresAt.UnixMilli(), tokenExpiryEpochMs(token))

	assert.Zero(t, tokenExpiryEpochMs("garbage"))
}
