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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	consoleclient "github.com/campushub/school-management-platform/console-client/clients/consolesvc/client"
	"github.com/campushub/school-management-platform/console-client/models"
	"github.com/campushub/school-management-platform/console-client/repositories"
	"github.com/campushub/school-management-platform/console-client/utils"
)

// Invalidator is the cache collaborator signalled after every tenant or
// branch switch. The coordinators do not know how the cache partitions its
// data; they always invalidate everything.
type Invalidator interface {
	InvalidateAll()
}

// tenantAPI is the slice of the console client the switcher needs.
type tenantAPI interface {
	ExchangeTenantToken(ctx context.Context, tenantID string) (*models.Credentials, error)
	ListBranches(ctx context.Context, tenantID string) ([]models.Branch, error)
}

// TenantSwitcher coordinates tenant and branch selection: credential
// exchange, context persistence, branch list refresh and cache invalidation.
// Switches are serialized; concurrent calls targeting the same tenant share
// one in-flight switch.
type TenantSwitcher struct {
	api           tenantAPI
	credentials   repositories.CredentialRepository
	tenantContext repositories.TenantContextRepository
	cache         Invalidator

	switchFlight singleflight.Group
	switchMu     sync.Mutex

	mu        sync.RWMutex
	current   *models.TenantContext
	branches  []models.Branch
	switching bool
}

// NewTenantSwitcher creates a switcher, hydrating the in-memory context from
// durable storage.
func NewTenantSwitcher(
	api tenantAPI,
	credentials repositories.CredentialRepository,
	tenantContext repositories.TenantContextRepository,
	cache Invalidator,
) (*TenantSwitcher, error) {
	current, err := tenantContext.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate tenant context: %w", err)
	}
	return &TenantSwitcher{
		api:           api,
		credentials:   credentials,
		tenantContext: tenantContext,
		cache:         cache,
		current:       current,
	}, nil
}

// Current returns the in-memory tenant context, or nil when no tenant is
// selected.
func (s *TenantSwitcher) Current() *models.TenantContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	tc := *s.current
	return &tc
}

// Branches returns the branch list fetched during the last tenant switch.
func (s *TenantSwitcher) Branches() []models.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branches
}

// Switching reports whether a tenant switch is in flight, so UI can disable
// inputs while it runs.
func (s *TenantSwitcher) Switching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.switching
}

// SelectTenant switches to the given tenant: exchanges credentials for
// tenant-scoped ones, persists the new context with the branch reset, fetches
// the branch list and invalidates all cached data. On a failure that touched
// durable state the in-memory context is rolled back to the last persisted
// snapshot and the error is returned.
func (s *TenantSwitcher) SelectTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is required", utils.ErrBadRequest)
	}
	_, err, _ := s.switchFlight.Do(tenantID, func() (any, error) {
		return nil, s.selectTenant(ctx, tenantID)
	})
	return err
}

func (s *TenantSwitcher) selectTenant(ctx context.Context, tenantID string) error {
	// Switch bodies run one at a time. The flight above only dedups callers
	// targeting the same tenant; without this lock two switches to different
	// tenants could interleave their credential and context writes.
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	// Snapshot the last durably persisted context before mutating anything;
	// it is the rollback target.
	snapshot, err := s.tenantContext.Get()
	if err != nil {
		return fmt.Errorf("failed to read tenant context: %w", err)
	}

	s.setSwitching(true)
	defer s.setSwitching(false)

	creds, err := s.credentials.Get()
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	// The exchange is skipped for not-yet-authenticated flows; the eventual
	// sign-in will mint tenant-scoped credentials itself.
	if creds != nil {
		newCreds, err := s.api.ExchangeTenantToken(ctx, tenantID)
		if err != nil {
			s.rollback(snapshot)
			return fmt.Errorf("tenant switch to %q failed: %w", tenantID, err)
		}
		s.checkTenantClaim(newCreds.AccessToken, tenantID)
	}

	next := &models.TenantContext{TenantID: tenantID}
	if err := s.tenantContext.Set(next); err != nil {
		s.rollback(snapshot)
		return fmt.Errorf("failed to persist tenant context: %w", err)
	}
	s.setCurrent(next)

	// A branch list failure degrades to an empty list; the switch itself
	// already committed.
	branches, err := s.api.ListBranches(ctx, tenantID)
	if err != nil {
		slog.Warn("tenant switch: branch list fetch failed, continuing with empty list",
			"tenantId", tenantID, "error", err)
		branches = nil
	}
	s.setBranches(branches)

	s.cache.InvalidateAll()
	slog.Info("tenant switched", "tenantId", tenantID, "branches", len(branches))
	return nil
}

// SelectBranch updates the branch within the current tenant and invalidates
// all cached data. Synchronous: no network call, no rollback. An empty
// branch ID clears the branch selection.
func (s *TenantSwitcher) SelectBranch(branchID string) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	current := s.Current()
	if current == nil {
		return utils.ErrNoTenantSelected
	}

	next := &models.TenantContext{TenantID: current.TenantID, BranchID: branchID}
	if err := s.tenantContext.Set(next); err != nil {
		return fmt.Errorf("failed to persist branch selection: %w", err)
	}
	s.setCurrent(next)

	s.cache.InvalidateAll()
	slog.Info("branch switched", "tenantId", next.TenantID, "branchId", branchID)
	return nil
}

// rollback restores the in-memory context to the last durable snapshot.
// Durable storage itself is untouched: a failed step never got to write it.
func (s *TenantSwitcher) rollback(snapshot *models.TenantContext) {
	s.setCurrent(snapshot)
	if snapshot != nil {
		slog.Warn("tenant switch rolled back", "tenantId", snapshot.TenantID, "branchId", snapshot.BranchID)
	} else {
		slog.Warn("tenant switch rolled back to empty context")
	}
}

// checkTenantClaim warns when the exchanged token does not carry the target
// tenant. Log-only: the server is authoritative on token scoping.
func (s *TenantSwitcher) checkTenantClaim(accessToken, tenantID string) {
	claimed, err := consoleclient.TokenTenantID(accessToken)
	if err != nil || claimed == "" {
		return
	}
	if claimed != tenantID {
		slog.Warn("tenant switch: exchanged token carries unexpected tenant claim",
			"expected", tenantID, "got", claimed)
	}
}

func (s *TenantSwitcher) setSwitching(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switching = v
}

func (s *TenantSwitcher) setCurrent(tc *models.TenantContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = tc
}

func (s *TenantSwitcher) setBranches(branches []models.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches = branches
}
