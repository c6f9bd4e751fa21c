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
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/campushub/school-management-platform/console-client/models"
)

const (
	signInPath       = "/auth/sign-in"
	refreshPath      = "/auth/refresh"
	selectTenantPath = "/auth/select-tenant"
)

// credentialsPayload is the wire shape of every endpoint that mints a
// credentials triple (sign-in, refresh, tenant select).
type credentialsPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAtEpochMs"`
}

// toCredentials validates the payload into a complete triple. Servers that
// omit the expiry field still work when the access token is a JWT carrying an
// exp claim.
func (p *credentialsPayload) toCredentials() (*models.Credentials, error) {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return nil, fmt.Errorf("incomplete credentials in response")
	}
	expiresAt := p.ExpiresAt
	if expiresAt == 0 {
		expiresAt = tokenExpiryEpochMs(p.AccessToken)
		if expiresAt != 0 {
			slog.Debug("console: credentials response had no expiry, using token exp claim")
		}
	}
	if expiresAt == 0 {
		return nil, fmt.Errorf("no expiry in credentials response")
	}
	return &models.Credentials{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type selectTenantRequest struct {
	TenantID string `json:"tenantId"`
}

// SignIn authenticates with email and password and persists the returned
// credentials triple.
func (c *consoleClient) SignIn(ctx context.Context, email, password string) (*models.Credentials, error) {
	env, err := c.Post(ctx, signInPath, signInRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	var payload credentialsPayload
	if err := env.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	creds, err := payload.toCredentials()
	if err != nil {
		return nil, fmt.Errorf("sign-in response: %w", err)
	}
	if err := c.credentials.Set(creds); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	slog.Info("console: signed in", "expires_at", creds.ExpiresAtTime())
	return creds, nil
}

// SignOut clears the stored credentials and tenant context. Purely local:
// the server keeps no session state beyond the tokens themselves.
func (c *consoleClient) SignOut() error {
	if err := c.credentials.Set(nil); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if err := c.tenantContext.Set(nil); err != nil {
		return fmt.Errorf("failed to clear tenant context: %w", err)
	}
	slog.Info("console: signed out")
	return nil
}

// ExchangeTenantToken exchanges the current credentials for a triple scoped
// to the given tenant and persists it immediately. This is the one place
// besides refresh where stored credentials change.
func (c *consoleClient) ExchangeTenantToken(ctx context.Context, tenantID string) (*models.Credentials, error) {
	env, err := c.Post(ctx, selectTenantPath, selectTenantRequest{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to exchange tenant token: %w", err)
	}

	var payload credentialsPayload
	if err := env.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tenant-select response: %w", err)
	}
	creds, err := payload.toCredentials()
	if err != nil {
		return nil, fmt.Errorf("tenant-select response: %w", err)
	}
	if err := c.credentials.Set(creds); err != nil {
		return nil, fmt.Errorf("failed to persist tenant credentials: %w", err)
	}
	return creds, nil
}

// ListBranches retrieves the branches of a tenant.
func (c *consoleClient) ListBranches(ctx context.Context, tenantID string) ([]models.Branch, error) {
	env, err := c.Get(ctx, "/tenants/"+url.PathEscape(tenantID)+"/branches")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	var resp models.BranchListResponse
	if err := env.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode branch list: %w", err)
	}
	if resp.List == nil {
		return []models.Branch{}, nil
	}
	return resp.List, nil
}
