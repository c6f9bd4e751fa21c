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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points HOME at an empty directory so no real profile leaks in.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ENV_FILE_PATH", "")
	t.Setenv("CONSOLE_PROFILE_PATH", "")
	t.Setenv("CONSOLE_API_BASE_URL", "")
	t.Setenv("CONSOLE_LANGUAGE", "")
}

func TestLoad(t *testing.T) {
	t.Run("Environment values with defaults applied", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("CONSOLE_API_BASE_URL", "https://api.campushub.test")

		cfg := Load()

		assert.Equal(t, "https://api.campushub.test", cfg.APIBaseURL)
		assert.Equal(t, "en", cfg.Language)
		assert.Equal(t, "/sign-in", cfg.SignInRoute)
		assert.Equal(t, 60, cfg.TokenRefreshBufferSeconds)
		assert.True(t, cfg.CacheEnabled)
		assert.Equal(t, 300, cfg.CacheTTLSeconds)
		assert.Equal(t, 3, cfg.Retry.AttemptsMax)
	})

	t.Run("Profile fills gaps, environment wins", func(t *testing.T) {
		isolateEnv(t)
		profilePath := filepath.Join(t.TempDir(), "profile.yaml")
		require.NoError(t, os.WriteFile(profilePath, []byte(
			"apiBaseUrl: https://profile.campushub.test\nlanguage: sw\nsignInRoute: /login\n"), 0o600))
		t.Setenv("CONSOLE_PROFILE_PATH", profilePath)
		t.Setenv("CONSOLE_LANGUAGE", "fr")

		cfg := Load()

		assert.Equal(t, "https://profile.campushub.test", cfg.APIBaseURL)
		assert.Equal(t, "fr", cfg.Language)
		assert.Equal(t, "/login", cfg.SignInRoute)
	})

	t.Run("Explicit overrides are read", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("CONSOLE_API_BASE_URL", "https://api.campushub.test")
		t.Setenv("CONSOLE_TOKEN_REFRESH_BUFFER_SECONDS", "120")
		t.Setenv("CONSOLE_CACHE_ENABLED", "false")
		t.Setenv("HTTP_RETRY_ATTEMPTS_MAX", "5")

		cfg := Load()

		assert.Equal(t, 120, cfg.TokenRefreshBufferSeconds)
		assert.False(t, cfg.CacheEnabled)
		assert.Equal(t, 5, cfg.Retry.AttemptsMax)
	})
}

func TestValidateSessionConfigs(t *testing.T) {
	base := func() *Config {
		return &Config{
			TokenRefreshBufferSeconds: 60,
			CacheTTLSeconds:           300,
			Retry: RetryConfig{
				WaitMinMillis: 1000,
				WaitMaxMillis: 10000,
				AttemptsMax:   3,
			},
		}
	}

	t.Run("Valid configuration collects no errors", func(t *testing.T) {
		r := &configReader{}
		validateSessionConfigs(base(), r)
		assert.Empty(t, r.errors)
	})

	t.Run("Non-positive refresh buffer is rejected", func(t *testing.T) {
		cfg := base()
		cfg.TokenRefreshBufferSeconds = 0
		r := &configReader{}
		validateSessionConfigs(cfg, r)
		assert.Len(t, r.errors, 1)
	})

	t.Run("Inverted retry waits are rejected", func(t *testing.T) {
		cfg := base()
		cfg.Retry.WaitMinMillis = 20000
		r := &configReader{}
		validateSessionConfigs(cfg, r)
		assert.Len(t, r.errors, 1)
	})
}
