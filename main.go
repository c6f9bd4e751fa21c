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

// Command console-client is a thin console over the session layer: sign in,
// inspect the session, switch tenant and branch, and fetch API resources
// through the authenticated interceptor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	consoleclient "github.com/campushub/school-management-platform/console-client/clients/consolesvc/client"
	"github.com/campushub/school-management-platform/console-client/clients/requests"
	"github.com/campushub/school-management-platform/console-client/config"
	"github.com/campushub/school-management-platform/console-client/repositories"
	"github.com/campushub/school-management-platform/console-client/repositories/kvstore"
	"github.com/campushub/school-management-platform/console-client/services"
)

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default to INFO
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Logger configured",
		"level", level.String())
}

// nopInvalidator satisfies the switcher when the local cache is disabled.
type nopInvalidator struct{}

func (nopInvalidator) InvalidateAll() {}

func main() {
	cfg := config.Load()

	setupLogger(cfg)

	signInFlag := flag.Bool("sign-in", false, "sign in with -email and -password")
	signOutFlag := flag.Bool("sign-out", false, "clear the stored session")
	whoamiFlag := flag.Bool("whoami", false, "print the current session")
	emailFlag := flag.String("email", "", "email for -sign-in")
	passwordFlag := flag.String("password", "", "password for -sign-in")
	selectTenantFlag := flag.String("select-tenant", "", "switch to the given tenant id")
	selectBranchFlag := flag.String("select-branch", "", "switch to the given branch id within the current tenant")
	branchesFlag := flag.Bool("branches", false, "list branches of the current tenant")
	fetchFlag := flag.String("fetch", "", "GET an API path through the interceptor")

	flag.Parse()

	store, err := kvstore.NewFileStore(cfg.StorageDir)
	if err != nil {
		slog.Error("failed to open session storage", "error", err)
		os.Exit(1)
	}
	credentials := repositories.NewCredentialRepo(store)
	tenantContext := repositories.NewTenantContextRepo(store)

	reactor := services.NewSessionExpiryReactor(
		credentials,
		cfg.Language,
		cfg.SignInRoute,
		func() string { return "" }, // the CLI has no current location
		services.NavigatorFunc(func(target string) {
			slog.Warn("session expired, sign in again", "signInUrl", target)
		}),
	)

	client, err := consoleclient.NewConsoleClient(&consoleclient.Config{
		BaseURL:          cfg.APIBaseURL,
		Language:         cfg.Language,
		RefreshBuffer:    time.Duration(cfg.TokenRefreshBufferSeconds) * time.Second,
		Credentials:      credentials,
		TenantContext:    tenantContext,
		OnSessionExpired: reactor.OnSessionExpired,
		RetryConfig: requests.RequestRetryConfig{
			RetryWaitMin:     time.Duration(cfg.Retry.WaitMinMillis) * time.Millisecond,
			RetryWaitMax:     time.Duration(cfg.Retry.WaitMaxMillis) * time.Millisecond,
			RetryAttemptsMax: cfg.Retry.AttemptsMax,
			AttemptTimeout:   time.Duration(cfg.Retry.AttemptTimeoutSeconds) * time.Second,
		},
	})
	if err != nil {
		slog.Error("failed to create console client", "error", err)
		os.Exit(1)
	}

	var cache services.Invalidator = nopInvalidator{}
	var queryCache *services.QueryCache
	if cfg.CacheEnabled {
		queryCache = services.NewQueryCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
		cache = queryCache
	}

	switcher, err := services.NewTenantSwitcher(client, credentials, tenantContext, cache)
	if err != nil {
		slog.Error("failed to initialize tenant switcher", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *signInFlag:
		if *emailFlag == "" || *passwordFlag == "" {
			slog.Error("-sign-in requires -email and -password")
			os.Exit(1)
		}
		creds, err := client.SignIn(ctx, *emailFlag, *passwordFlag)
		exitOnError("sign-in failed", err)
		fmt.Printf("signed in, token expires at %s\n", creds.ExpiresAtTime().Format(time.RFC3339))

	case *signOutFlag:
		exitOnError("sign-out failed", client.SignOut())
		fmt.Println("signed out")

	case *selectTenantFlag != "":
		exitOnError("tenant switch failed", switcher.SelectTenant(ctx, *selectTenantFlag))
		fmt.Printf("selected tenant %s (%d branches)\n", *selectTenantFlag, len(switcher.Branches()))

	case *selectBranchFlag != "":
		exitOnError("branch switch failed", switcher.SelectBranch(*selectBranchFlag))
		fmt.Printf("selected branch %s\n", *selectBranchFlag)

	case *branchesFlag:
		current := switcher.Current()
		if current == nil {
			slog.Error("no tenant selected")
			os.Exit(1)
		}
		branches, err := client.ListBranches(ctx, current.TenantID)
		exitOnError("branch list failed", err)
		for _, b := range branches {
			fmt.Printf("%s\t%s\n", b.ID, b.Name)
		}

	case *fetchFlag != "":
		env, err := fetchThroughCache(ctx, client, queryCache, *fetchFlag)
		exitOnError("fetch failed", err)
		if env.Empty() {
			fmt.Println("(no content)")
		} else {
			fmt.Println(string(env.Data))
		}

	case *whoamiFlag:
		printSession(credentials, switcher)

	default:
		flag.Usage()
	}
}

// fetchThroughCache serves repeated reads of the same path from the local
// query cache; tenant and branch switches discard it wholesale.
func fetchThroughCache(ctx context.Context, client consoleclient.ConsoleClient, cache *services.QueryCache, path string) (*consoleclient.Envelope, error) {
	if cache != nil {
		if env, ok := cache.Get(path); ok {
			return env, nil
		}
	}
	env, err := client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Set(path, env)
	}
	return env, nil
}

func printSession(credentials repositories.CredentialRepository, switcher *services.TenantSwitcher) {
	creds, err := credentials.Get()
	exitOnError("failed to read credentials", err)
	if creds == nil {
		fmt.Println("not signed in")
	} else {
		tenant, _ := consoleclient.TokenTenantID(creds.AccessToken)
		fmt.Printf("signed in, token expires at %s\n", creds.ExpiresAtTime().Format(time.RFC3339))
		if tenant != "" {
			fmt.Printf("token tenant: %s\n", tenant)
		}
	}

	if current := switcher.Current(); current != nil {
		fmt.Printf("tenant: %s\n", current.TenantID)
		if current.BranchID != "" {
			fmt.Printf("branch: %s\n", current.BranchID)
		}
	} else {
		fmt.Println("no tenant selected")
	}
}

func exitOnError(msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
		os.Exit(1)
	}
}
