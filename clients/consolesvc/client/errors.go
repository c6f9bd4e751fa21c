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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campushub/school-management-platform/console-client/utils"
)

// AuthenticationError signals that the server rejected the call's
// credentials. By the time the caller sees it, the stored credentials have
// been cleared and the session expiry hook has fired.
type AuthenticationError struct {
	Body string
}

func (e *AuthenticationError) Error() string {
	return "authentication rejected"
}

func (e *AuthenticationError) Unwrap() error {
	return utils.ErrUnauthorized
}

// ValidationError carries the field-keyed messages of an unprocessable-entity
// response so UI code can attach errors to individual form fields.
type ValidationError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation rejected: %s", e.Message)
	}
	return fmt.Sprintf("validation rejected: %d invalid field(s)", len(e.Fields))
}

// validationBody is the wire shape of a 422 response. Field messages arrive
// either as a single string or as a list.
type validationBody struct {
	Message string                     `json:"message,omitempty"`
	Errors  map[string]json.RawMessage `json:"errors,omitempty"`
}

func newValidationError(statusCode int, body []byte) *ValidationError {
	verr := &ValidationError{StatusCode: statusCode, Fields: map[string][]string{}}

	var parsed validationBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		verr.Message = string(body)
		return verr
	}
	verr.Message = parsed.Message
	for field, raw := range parsed.Errors {
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err == nil {
			verr.Fields[field] = msgs
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			verr.Fields[field] = []string{msg}
		}
	}
	return verr
}

// StatusError is the generic non-2xx failure: status and raw body surfaced,
// with a sentinel attached where the status has a well-known meaning so
// callers can test with errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
	sentinel   error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request rejected with status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.sentinel
}

func newStatusError(statusCode int, body []byte) *StatusError {
	err := &StatusError{StatusCode: statusCode, Body: string(body)}
	switch statusCode {
	case http.StatusBadRequest:
		err.sentinel = utils.ErrBadRequest
	case http.StatusForbidden:
		err.sentinel = utils.ErrForbidden
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		err.sentinel = utils.ErrServiceUnavailable
	}
	return err
}
