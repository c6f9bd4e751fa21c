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

// Package client provides the console service client: the single chokepoint
// every console API call passes through. It injects language, tenant and
// branch headers, refreshes expiring access tokens before dispatch, attaches
// the bearer token, and normalizes responses into envelopes and typed errors.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/campushub/school-management-platform/console-client/clients/requests"
	"github.com/campushub/school-management-platform/console-client/middleware/logger"
	"github.com/campushub/school-management-platform/console-client/models"
	"github.com/campushub/school-management-platform/console-client/repositories"
)

// Request headers set by the interceptor. Caller-supplied values win on
// conflict.
const (
	HeaderLanguage      = "Accept-Language"
	HeaderTenant        = "X-Tenant-Id"
	HeaderBranch        = "X-Branch-Id"
	HeaderRequestID     = "X-Request-Id"
	headerAuthorization = "Authorization"
)

// DefaultRefreshBuffer is the time before expiry at which a pre-flight token
// refresh is attempted.
const DefaultRefreshBuffer = 60 * time.Second

// Config contains configuration for the console client
type Config struct {
	// BaseURL is the console API base URL
	BaseURL string

	// Language is the UI language sent with every request
	Language string

	// RefreshBuffer overrides DefaultRefreshBuffer when positive
	RefreshBuffer time.Duration

	// Credentials and TenantContext are the durable session stores the
	// interceptor reads on every call
	Credentials   repositories.CredentialRepository
	TenantContext repositories.TenantContextRepository

	// OnSessionExpired is invoked after an authentication-rejected response
	// has cleared the stored credentials
	OnSessionExpired func(ctx context.Context)

	// HTTPClient overrides the default retryable client (used by tests)
	HTTPClient  requests.HttpClient
	RetryConfig requests.RequestRetryConfig
}

// ConsoleClient defines the authenticated, tenant-scoped console API surface
type ConsoleClient interface {
	// Do dispatches a prepared request through the interceptor
	Do(ctx context.Context, req *requests.HttpRequest) (*Envelope, error)

	// Convenience wrappers over Do
	Get(ctx context.Context, path string) (*Envelope, error)
	Post(ctx context.Context, path string, body any) (*Envelope, error)
	Put(ctx context.Context, path string, body any) (*Envelope, error)
	Delete(ctx context.Context, path string) (*Envelope, error)

	// Session lifecycle
	SignIn(ctx context.Context, email, password string) (*models.Credentials, error)
	SignOut() error
	ExchangeTenantToken(ctx context.Context, tenantID string) (*models.Credentials, error)
	ListBranches(ctx context.Context, tenantID string) ([]models.Branch, error)
}

type consoleClient struct {
	baseURL          string
	language         string
	refreshBuffer    time.Duration
	credentials      repositories.CredentialRepository
	tenantContext    repositories.TenantContextRepository
	onSessionExpired func(ctx context.Context)
	httpClient       requests.HttpClient

	refreshFlight singleflight.Group
}

// NewConsoleClient creates a new console client
func NewConsoleClient(cfg *Config) (ConsoleClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential repository is required")
	}
	if cfg.TenantContext == nil {
		return nil, fmt.Errorf("tenant context repository is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = requests.NewRetryableHTTPClient(&http.Client{}, cfg.RetryConfig)
	}
	refreshBuffer := cfg.RefreshBuffer
	if refreshBuffer <= 0 {
		refreshBuffer = DefaultRefreshBuffer
	}

	return &consoleClient{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		language:         cfg.Language,
		refreshBuffer:    refreshBuffer,
		credentials:      cfg.Credentials,
		tenantContext:    cfg.TenantContext,
		onSessionExpired: cfg.OnSessionExpired,
		httpClient:       httpClient,
	}, nil
}

// Do runs the request through the interceptor chain: derived headers, tenant
// scoping, pre-flight refresh, bearer injection, dispatch, classification.
func (c *consoleClient) Do(ctx context.Context, req *requests.HttpRequest) (*Envelope, error) {
	log := logger.GetLogger(ctx)

	c.injectDerivedHeaders(req)

	if creds := c.freshCredentials(ctx); creds != nil && req.Header(headerAuthorization) == "" {
		req.SetHeader(headerAuthorization, "Bearer "+creds.AccessToken)
	}

	result := requests.SendRequest(ctx, c.httpClient, req)
	if err := result.Err(); err != nil {
		return nil, err
	}
	return c.classify(ctx, log, result)
}

func (c *consoleClient) Get(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, &requests.HttpRequest{
		Name:   "console.GET " + path,
		URL:    c.baseURL + path,
		Method: http.MethodGet,
	})
}

func (c *consoleClient) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doWithBody(ctx, http.MethodPost, path, body)
}

func (c *consoleClient) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doWithBody(ctx, http.MethodPut, path, body)
}

func (c *consoleClient) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, &requests.HttpRequest{
		Name:   "console.DELETE " + path,
		URL:    c.baseURL + path,
		Method: http.MethodDelete,
	})
}

func (c *consoleClient) doWithBody(ctx context.Context, method, path string, body any) (*Envelope, error) {
	req := &requests.HttpRequest{
		Name:   "console." + method + " " + path,
		URL:    c.baseURL + path,
		Method: method,
	}
	if body != nil {
		if err := req.SetJSONBody(body); err != nil {
			return nil, err
		}
	}
	return c.Do(ctx, req)
}

// injectDerivedHeaders adds the language, tenant scoping and correlation
// headers. Headers already present on the request are left alone so caller
// values win.
func (c *consoleClient) injectDerivedHeaders(req *requests.HttpRequest) {
	setDefault := func(key, value string) {
		if value != "" && req.Header(key) == "" {
			req.SetHeader(key, value)
		}
	}

	setDefault(HeaderLanguage, c.language)
	setDefault(HeaderRequestID, uuid.NewString())

	tc, err := c.tenantContext.Get()
	if err != nil {
		slog.Warn("console: failed to read tenant context, sending unscoped request", "error", err)
		return
	}
	if tc == nil {
		return
	}
	setDefault(HeaderTenant, tc.TenantID)
	setDefault(HeaderBranch, tc.BranchID)
}

// freshCredentials returns the credentials to authenticate this call with,
// refreshing first when the access token is inside the expiry buffer. A
// failed refresh is not fatal: the stored token is used as-is and the
// server's response decides the outcome.
func (c *consoleClient) freshCredentials(ctx context.Context) *models.Credentials {
	creds, err := c.credentials.Get()
	if err != nil {
		slog.Warn("console: failed to read credentials, sending unauthenticated request", "error", err)
		return nil
	}
	if creds == nil {
		return nil
	}
	if !creds.ExpiresWithin(c.refreshBuffer) {
		return creds
	}

	refreshed, err := c.refreshSession(ctx)
	if err != nil {
		slog.Warn("console: token refresh failed, proceeding with stored token", "error", err)
		return creds
	}
	return refreshed
}

// refreshSession exchanges the refresh token for a new credentials triple and
// persists it. Concurrent callers share a single in-flight refresh.
func (c *consoleClient) refreshSession(ctx context.Context) (*models.Credentials, error) {
	v, err, _ := c.refreshFlight.Do("refresh", func() (any, error) {
		current, err := c.credentials.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("no credentials to refresh")
		}
		// Another caller may have refreshed while we waited for the flight.
		if !current.ExpiresWithin(c.refreshBuffer) {
			return current, nil
		}

		req := &requests.HttpRequest{
			Name:   "console.refreshSession",
			URL:    c.baseURL + refreshPath,
			Method: http.MethodPost,
		}
		req.SetHeader(headerAuthorization, "Bearer "+current.RefreshToken)

		var payload credentialsPayload
		if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&payload, http.StatusOK); err != nil {
			return nil, fmt.Errorf("console.refreshSession: %w", err)
		}
		creds, err := payload.toCredentials()
		if err != nil {
			return nil, fmt.Errorf("console.refreshSession: %w", err)
		}
		if err := c.credentials.Set(creds); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed credentials: %w", err)
		}

		slog.Info("console: refreshed access token",
			"expires_at", creds.ExpiresAtTime().Format(time.RFC3339))
		return creds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Credentials), nil
}

// classify turns the raw response into a success envelope or a typed error.
func (c *consoleClient) classify(ctx context.Context, log *slog.Logger, result *requests.Result) (*Envelope, error) {
	status := result.StatusCode()

	if status == http.StatusUnauthorized {
		log.Info("console: authentication rejected, clearing session", slog.Int("status", status))
		if err := c.credentials.Set(nil); err != nil {
			log.Error("console: failed to clear credentials", slog.String("error", err.Error()))
		}
		if c.onSessionExpired != nil {
			c.onSessionExpired(ctx)
		}
		return nil, &AuthenticationError{Body: string(result.Body())}
	}

	if status == http.StatusNoContent {
		return &Envelope{StatusCode: status, Header: result.Header()}, nil
	}

	body := result.Body()

	if status == http.StatusUnprocessableEntity {
		return nil, newValidationError(status, body)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, newStatusError(status, body)
	}

	// Some endpoints return an empty or non-JSON body on success; treat that
	// as an empty object rather than a parse failure.
	data := json.RawMessage("{}")
	if len(body) > 0 && json.Valid(body) {
		data = json.RawMessage(body)
	}
	return &Envelope{Data: data, StatusCode: status, Header: result.Header()}, nil
}
