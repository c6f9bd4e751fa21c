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

// Config holds all configuration for the console client
type Config struct {
	// APIBaseURL is the console REST API base URL
	APIBaseURL string

	// Language is the UI language sent with every request and used as the
	// sign-in route prefix
	Language string

	LogLevel string

	// SignInRoute is the language-less sign-in route used on session expiry
	SignInRoute string

	// TokenRefreshBufferSeconds is how close to expiry a pre-flight token
	// refresh is attempted
	TokenRefreshBufferSeconds int

	// StorageDir is where the credential and tenant-context slots persist
	StorageDir string

	// CacheEnabled toggles the local query cache
	CacheEnabled bool

	// CacheTTLSeconds bounds the lifetime of cached query results
	CacheTTLSeconds int

	// Retry configures the outbound HTTP retry behavior
	Retry RetryConfig
}

// RetryConfig holds HTTP retry tuning
type RetryConfig struct {
	WaitMinMillis         int64
	WaitMaxMillis         int64
	AttemptsMax           int
	AttemptTimeoutSeconds int
}
