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

package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/campushub/school-management-platform/console-client/models"
	"github.com/campushub/school-management-platform/console-client/repositories/kvstore"
)

const tenantContextSlot = "tenant_context"

// TenantContextRepository defines access to the persisted tenant/branch
// selection. Get returns nil when no tenant is selected. Setting a context
// with an empty tenant ID clears the whole record rather than storing a
// half-empty structure.
type TenantContextRepository interface {
	Get() (*models.TenantContext, error)
	Set(tc *models.TenantContext) error
}

// TenantContextRepo implements TenantContextRepository over a durable slot store.
type TenantContextRepo struct {
	store kvstore.Store
}

// NewTenantContextRepo creates a new tenant context repository
func NewTenantContextRepo(store kvstore.Store) TenantContextRepository {
	return &TenantContextRepo{store: store}
}

// Get retrieves the stored tenant context, or nil when absent.
func (r *TenantContextRepo) Get() (*models.TenantContext, error) {
	raw, ok, err := r.store.Get(tenantContextSlot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var tc models.TenantContext
	if err := json.Unmarshal([]byte(raw), &tc); err != nil {
		slog.Warn("tenant context: stored record is unreadable, treating as absent", "error", err)
		return nil, nil
	}
	if tc.TenantID == "" {
		return nil, nil
	}
	return &tc, nil
}

// Set persists the tenant context. A nil context or one without a tenant ID
// clears the slot.
func (r *TenantContextRepo) Set(tc *models.TenantContext) error {
	if tc == nil || tc.TenantID == "" {
		return r.store.Delete(tenantContextSlot)
	}

	raw, err := json.Marshal(tc)
	if err != nil {
		return fmt.Errorf("failed to serialize tenant context: %w", err)
	}
	return r.store.Set(tenantContextSlot, string(raw))
}
