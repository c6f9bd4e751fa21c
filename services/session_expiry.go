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
	"log/slog"
	"net/url"

	"github.com/campushub/school-management-platform/console-client/repositories"
)

// Navigator is asked to take the user somewhere, typically the sign-in
// screen. In a browser embedding this drives window navigation; the CLI just
// reports the target.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// Locator reports the path+query the user is currently on, used as the
// return-to destination after re-authentication.
type Locator func() string

// SessionExpiryReactor handles authentication-rejected responses: it clears
// the stored credentials and sends the user to the sign-in route with the
// originating location preserved. It never retries the failed request.
type SessionExpiryReactor struct {
	credentials repositories.CredentialRepository
	language    string
	signInRoute string
	locate      Locator
	navigator   Navigator
}

// NewSessionExpiryReactor creates a reactor. signInRoute is the language-less
// route of the sign-in screen, e.g. "/sign-in".
func NewSessionExpiryReactor(
	credentials repositories.CredentialRepository,
	language string,
	signInRoute string,
	locate Locator,
	navigator Navigator,
) *SessionExpiryReactor {
	return &SessionExpiryReactor{
		credentials: credentials,
		language:    language,
		signInRoute: signInRoute,
		locate:      locate,
		navigator:   navigator,
	}
}

// OnSessionExpired clears credentials and requests navigation to
// /<language><signInRoute>?returnTo=<current location>.
func (r *SessionExpiryReactor) OnSessionExpired(ctx context.Context) {
	if err := r.credentials.Set(nil); err != nil {
		slog.Error("session expiry: failed to clear credentials", "error", err)
	}

	target := r.SignInURL()
	slog.Info("session expired, redirecting to sign-in", "target", target)
	if r.navigator != nil {
		r.navigator.Navigate(target)
	}
}

// SignInURL builds the sign-in route with the current location as returnTo.
func (r *SessionExpiryReactor) SignInURL() string {
	target := "/" + r.language + r.signInRoute
	if r.locate == nil {
		return target
	}
	if loc := r.locate(); loc != "" {
		target += "?returnTo=" + url.QueryEscape(loc)
	}
	return target
}
