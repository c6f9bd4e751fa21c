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
	"github.com/campushub/school-management-platform/console-client/utils"
)

const credentialsSlot = "credentials"

// CredentialRepository defines access to the persisted credentials triple.
// Get returns nil (not an error) when no credentials are stored; Set with nil
// clears the slot. The triple is stored whole or not at all.
type CredentialRepository interface {
	Get() (*models.Credentials, error)
	Set(creds *models.Credentials) error
}

// CredentialRepo implements CredentialRepository over a durable slot store.
type CredentialRepo struct {
	store kvstore.Store
}

// NewCredentialRepo creates a new credential repository
func NewCredentialRepo(store kvstore.Store) CredentialRepository {
	return &CredentialRepo{store: store}
}

// Get retrieves the stored credentials, or nil when absent. A slot holding a
// partial or unparseable record is treated as absent: handing out a partial
// triple would violate the all-or-nothing invariant.
func (r *CredentialRepo) Get() (*models.Credentials, error) {
	raw, ok, err := r.store.Get(credentialsSlot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var creds models.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		slog.Warn("credentials: stored record is unreadable, treating as absent", "error", err)
		return nil, nil
	}
	if !creds.Complete() {
		slog.Warn("credentials: stored record is incomplete, treating as absent")
		return nil, nil
	}
	return &creds, nil
}

// Set persists the credentials triple, or clears the slot when creds is nil.
func (r *CredentialRepo) Set(creds *models.Credentials) error {
	if creds == nil {
		return r.store.Delete(credentialsSlot)
	}
	if !creds.Complete() {
		return fmt.Errorf("%w: access token, refresh token and expiry are all required", utils.ErrPartialCredentials)
	}

	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	return r.store.Set(credentialsSlot, string(raw))
}
