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

// TenantContext is the currently selected tenant and branch. BranchID is
// meaningful only while TenantID is set; selecting a new tenant resets the
// branch until one is explicitly chosen.
type TenantContext struct {
	TenantID string `json:"tenantId"`
	BranchID string `json:"branchId,omitempty"`
}

// Branch is a sub-division of a tenant (a campus) as returned by the
// branch-list endpoint.
type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	City      string    `json:"city,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// BranchListResponse is the envelope body of the branch-list endpoint.
type BranchListResponse struct {
	List []Branch `json:"list"`
}
