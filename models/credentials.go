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

package models

import "time"

// Credentials is the access/refresh token pair used to authenticate console
// API calls. The triple is always persisted whole: a record with any field
// missing is treated as absent.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresAt is the absolute expiry of the access token in epoch
	// milliseconds, matching the wire format of the auth endpoints.
	ExpiresAt int64 `json:"expiresAtEpochMs"`
}

// Complete reports whether all three fields of the triple are set.
func (c *Credentials) Complete() bool {
	return c != nil && c.AccessToken != "" && c.RefreshToken != "" && c.ExpiresAt > 0
}

// ExpiresAtTime returns the expiry instant as a time.Time.
func (c *Credentials) ExpiresAtTime() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// ExpiresWithin reports whether the access token expires within d from now
// (or has already expired).
func (c *Credentials) ExpiresWithin(d time.Duration) bool {
	return time.Until(c.ExpiresAtTime()) <= d
}
