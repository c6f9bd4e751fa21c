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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// profile is the optional YAML profile file. Environment variables win over
// profile values; profile values win over built-in defaults.
type profile struct {
	APIBaseURL  string `json:"apiBaseUrl,omitempty"`
	Language    string `json:"language,omitempty"`
	LogLevel    string `json:"logLevel,omitempty"`
	SignInRoute string `json:"signInRoute,omitempty"`
	StorageDir  string `json:"storageDir,omitempty"`
}

// Load reads the configuration from the optional .env file (ENV_FILE_PATH),
// the optional YAML profile (CONSOLE_PROFILE_PATH or the default location)
// and the environment. Invalid configuration logs every problem found and
// exits.
func Load() *Config {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			panic(err)
		}
	}

	r := &configReader{}
	p := loadProfile(r)

	config := &Config{}
	config.APIBaseURL = r.readRequiredString("CONSOLE_API_BASE_URL", p.APIBaseURL)
	config.Language = r.readOptionalString("CONSOLE_LANGUAGE", orDefault(p.Language, "en"))
	config.LogLevel = r.readOptionalString("LOG_LEVEL", orDefault(p.LogLevel, "INFO"))
	config.SignInRoute = r.readOptionalString("CONSOLE_SIGN_IN_ROUTE", orDefault(p.SignInRoute, "/sign-in"))
	config.TokenRefreshBufferSeconds = int(r.readOptionalInt64("CONSOLE_TOKEN_REFRESH_BUFFER_SECONDS", 60))
	config.StorageDir = r.readOptionalString("CONSOLE_STORAGE_DIR", orDefault(p.StorageDir, defaultStorageDir()))
	config.CacheEnabled = r.readOptionalBool("CONSOLE_CACHE_ENABLED", true)
	config.CacheTTLSeconds = int(r.readOptionalInt64("CONSOLE_CACHE_TTL_SECONDS", 300))

	config.Retry = RetryConfig{
		WaitMinMillis:         r.readOptionalInt64("HTTP_RETRY_WAIT_MIN_MILLIS", 1000),
		WaitMaxMillis:         r.readOptionalInt64("HTTP_RETRY_WAIT_MAX_MILLIS", 10000),
		AttemptsMax:           int(r.readOptionalInt64("HTTP_RETRY_ATTEMPTS_MAX", 3)),
		AttemptTimeoutSeconds: int(r.readOptionalInt64("HTTP_ATTEMPT_TIMEOUT_SECONDS", 30)),
	}

	validateSessionConfigs(config, r)

	r.logAndExitIfErrorsFound()

	slog.Info("configReader: configs loaded")
	return config
}

// loadProfile reads the YAML profile if one exists. A missing file is fine; a
// present but unreadable one is a configuration error.
func loadProfile(r *configReader) profile {
	var p profile

	path := os.Getenv("CONSOLE_PROFILE_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultProfilePath()
		if path == "" {
			return p
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return p
		}
		r.errors = append(r.errors, fmt.Errorf("failed to read profile %q: %w", path, err))
		return p
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		r.errors = append(r.errors, fmt.Errorf("failed to parse profile %q: %w", path, err))
	}
	return p
}

func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "console-client", "profile.yaml")
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".console-client"
	}
	return filepath.Join(home, ".config", "console-client", "session")
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func validateSessionConfigs(cfg *Config, r *configReader) {
	if cfg.TokenRefreshBufferSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("CONSOLE_TOKEN_REFRESH_BUFFER_SECONDS must be greater than 0, got %d", cfg.TokenRefreshBufferSeconds))
	}
	if cfg.CacheTTLSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("CONSOLE_CACHE_TTL_SECONDS must be greater than 0, got %d", cfg.CacheTTLSeconds))
	}
	if cfg.Retry.AttemptsMax < 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_RETRY_ATTEMPTS_MAX must not be negative, got %d", cfg.Retry.AttemptsMax))
	}
	if cfg.Retry.WaitMinMillis > cfg.Retry.WaitMaxMillis {
		r.errors = append(r.errors, fmt.Errorf("HTTP_RETRY_WAIT_MIN_MILLIS (%d) must be <= HTTP_RETRY_WAIT_MAX_MILLIS (%d)",
			cfg.Retry.WaitMinMillis, cfg.Retry.WaitMaxMillis))
	}
}
