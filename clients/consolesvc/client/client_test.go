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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/school-management-platform/console-client/clients/requests"
	"github.com/campushub/school-management-platform/console-client/models"
	"github.com/campushub/school-management-platform/console-client/repositories"
	"github.com/campushub/school-management-platform/console-client/repositories/kvstore"
	"github.com/campushub/school-management-platform/console-client/utils"
)

type testSession struct {
	client        ConsoleClient
	credentials   repositories.CredentialRepository
	tenantContext repositories.TenantContextRepository
	expiredCalls  atomic.Int32
}

func newTestSession(t *testing.T, srv *httptest.Server) *testSession {
	t.Helper()

	s := &testSession{
		credentials:   repositories.NewCredentialRepo(kvstore.NewMemoryStore()),
		tenantContext: repositories.NewTenantContextRepo(kvstore.NewMemoryStore()),
	}

	client, err := NewConsoleClient(&Config{
		BaseURL:       srv.URL,
		Language:      "en",
		Credentials:   s.credentials,
		TenantContext: s.tenantContext,
		OnSessionExpired: func(ctx context.Context) {
			s.expiredCalls.Add(1)
		},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	s.client = client
	return s
}

func freshCreds() *models.Credentials {
	return &models.Credentials{
		AccessToken:  "fresh-access",
		RefreshToken: "fresh-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
}

func expiringCreds() *models.Credentials {
	return &models.Credentials{
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(30 * time.Second).UnixMilli(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func refreshedPayload() credentialsPayload {
	return credentialsPayload{
		AccessToken:  "refreshed-access",
		RefreshToken: "refreshed-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
}

func TestInterceptorHeaders(t *testing.T) {
	t.Run("Unauthenticated request carries no auth or tenant headers", func(t *testing.T) {
		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeJSON(w, http.StatusOK, map[string]string{})
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		_, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)

		assert.Empty(t, got.Get("Authorization"))
		assert.Empty(t, got.Get(HeaderTenant))
		assert.Empty(t, got.Get(HeaderBranch))
		assert.Equal(t, "en", got.Get(HeaderLanguage))
		assert.NotEmpty(t, got.Get(HeaderRequestID))
	})

	t.Run("Tenant and branch headers follow the stored context", func(t *testing.T) {
		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeJSON(w, http.StatusOK, map[string]string{})
		}))
		defer srv.Close()
		s := newTestSession(t, srv)
		require.NoError(t, s.tenantContext.Set(&models.TenantContext{TenantID: "T1", BranchID: "B1"}))
		require.NoError(t, s.credentials.Set(freshCreds()))

		_, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)

		assert.Equal(t, "T1", got.Get(HeaderTenant))
		assert.Equal(t, "B1", got.Get(HeaderBranch))
		assert.Equal(t, "Bearer fresh-access", got.Get("Authorization"))
	})

	t.Run("Caller-supplied headers win over derived ones", func(t *testing.T) {
		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeJSON(w, http.StatusOK, map[string]string{})
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		req := &requests.HttpRequest{
			Name:   "console.GET /students",
			URL:    srv.URL + "/students",
			Method: http.MethodGet,
		}
		req.SetHeader(HeaderLanguage, "sw")
		_, err := s.client.Do(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, "sw", got.Get(HeaderLanguage))
	})
}

func TestInterceptorRefresh(t *testing.T) {
	t.Run("Expiring token is refreshed before the main request", func(t *testing.T) {
		var refreshCalls atomic.Int32
		var mainAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			assert.Equal(t, "Bearer stale-refresh", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, refreshedPayload())
		})
		mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
			mainAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		s := newTestSession(t, srv)
		require.NoError(t, s.credentials.Set(expiringCreds()))

		_, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)

		assert.Equal(t, int32(1), refreshCalls.Load())
		assert.Equal(t, "Bearer refreshed-access", mainAuth)

		stored, err := s.credentials.Get()
		require.NoError(t, err)
		assert.Equal(t, "refreshed-access", stored.AccessToken)
	})

	t.Run("Refresh failure falls back to the stored token", func(t *testing.T) {
		var mainAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
			mainAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		s := newTestSession(t, srv)
		stale := expiringCreds()
		require.NoError(t, s.credentials.Set(stale))

		_, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)

		assert.Equal(t, "Bearer stale-access", mainAuth)

		// Store is unchanged on refresh failure.
		stored, err := s.credentials.Get()
		require.NoError(t, err)
		assert.Equal(t, stale, stored)
	})

	t.Run("Concurrent callers share a single refresh", func(t *testing.T) {
		var refreshCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			time.Sleep(50 * time.Millisecond)
			writeJSON(w, http.StatusOK, refreshedPayload())
		})
		mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		s := newTestSession(t, srv)
		require.NoError(t, s.credentials.Set(expiringCreds()))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.client.Get(context.Background(), "/students")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), refreshCalls.Load())
	})

	t.Run("Valid token skips the refresh endpoint", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			t.Error("refresh should not be called for a valid token")
		})
		mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		s := newTestSession(t, srv)
		require.NoError(t, s.credentials.Set(freshCreds()))

		_, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)
	})
}

func TestInterceptorClassification(t *testing.T) {
	t.Run("401 clears credentials, fires the expiry hook and rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()
		s := newTestSession(t, srv)
		require.NoError(t, s.credentials.Set(freshCreds()))

		_, err := s.client.Get(context.Background(), "/students")
		require.Error(t, err)

		var authErr *AuthenticationError
		assert.ErrorAs(t, err, &authErr)
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
		assert.Equal(t, int32(1), s.expiredCalls.Load())

		stored, err := s.credentials.Get()
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("204 yields an empty envelope without parsing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		env, err := s.client.Delete(context.Background(), "/students/1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, env.StatusCode)
		assert.True(t, env.Empty())
	})

	t.Run("Success with a non-JSON body becomes an empty object", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("plainly not json"))
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		env, err := s.client.Get(context.Background(), "/students")
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(env.Data))
	})

	t.Run("422 surfaces a field-keyed validation error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "invalid student",
				"errors": map[string]any{
					"email": []string{"is malformed"},
					"name":  "is required",
				},
			})
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		_, err := s.client.Post(context.Background(), "/students", map[string]string{})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, http.StatusUnprocessableEntity, verr.StatusCode)
		assert.Equal(t, []string{"is malformed"}, verr.Fields["email"])
		assert.Equal(t, []string{"is required"}, verr.Fields["name"])
	})

	t.Run("Generic failures carry status, body and a sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("maintenance window"))
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		_, err := s.client.Get(context.Background(), "/students")
		require.Error(t, err)

		var serr *StatusError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
		assert.Equal(t, "maintenance window", serr.Body)
		assert.ErrorIs(t, err, utils.ErrServiceUnavailable)
	})

	t.Run("Success envelope decodes into a struct", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"name": "North Campus"})
		}))
		defer srv.Close()
		s := newTestSession(t, srv)

		env, err := s.client.Get(context.Background(), "/branches/B1")
		require.NoError(t, err)

		var body struct {
			Name string `json:"name"`
		}
		require.NoError(t, env.Decode(&body))
		assert.Equal(t, "North Campus", body.Name)
	})
}

func TestNewConsoleClient(t *testing.T) {
	creds := repositories.NewCredentialRepo(kvstore.NewMemoryStore())
	tc := repositories.NewTenantContextRepo(kvstore.NewMemoryStore())

	t.Run("Requires a base URL", func(t *testing.T) {
		_, err := NewConsoleClient(&Config{Credentials: creds, TenantContext: tc})
		assert.Error(t, err)
	})

	t.Run("Requires the session stores", func(t *testing.T) {
		_, err := NewConsoleClient(&Config{BaseURL: "http://api.local", TenantContext: tc})
		assert.Error(t, err)

		_, err = NewConsoleClient(&Config{BaseURL: "http://api.local", Credentials: creds})
		assert.Error(t, err)
	})
}
