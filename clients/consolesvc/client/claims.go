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
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenClaims are the console token claims inspected client-side.
// Signature verification belongs to the server; the client only reads.
type accessTokenClaims struct {
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

func parseAccessTokenClaims(token string) (*accessTokenClaims, error) {
	claims := &accessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// TokenTenantID returns the tenant claim carried by an access token, or an
// empty string when the token has none.
func TokenTenantID(token string) (string, error) {
	claims, err := parseAccessTokenClaims(token)
	if err != nil {
		return "", err
	}
	return claims.TenantID, nil
}

// tokenExpiryEpochMs returns the exp claim in epoch milliseconds, or 0 when
// the token carries none or cannot be parsed.
func tokenExpiryEpochMs(token string) int64 {
	claims, err := parseAccessTokenClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.UnixMilli()
}
