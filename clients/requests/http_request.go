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

package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HttpRequest describes an outbound API request. Name identifies the call in
// logs; URL is the absolute target. Headers and query params are optional.
type HttpRequest struct {
	Name   string
	URL    string
	Method string

	headers     http.Header
	queryParams url.Values

	body        []byte
	contentType string
}

// SetHeader sets a request header, replacing any existing value.
func (r *HttpRequest) SetHeader(key, value string) {
	if r.headers == nil {
		r.headers = http.Header{}
	}
	r.headers.Set(key, value)
}

// Header returns the value of a request header set so far.
func (r *HttpRequest) Header(key string) string {
	return r.headers.Get(key)
}

// SetQueryParam sets a URL query parameter.
func (r *HttpRequest) SetQueryParam(key, value string) {
	if r.queryParams == nil {
		r.queryParams = url.Values{}
	}
	r.queryParams.Set(key, value)
}

// SetJSONBody marshals v as the JSON request body.
func (r *HttpRequest) SetJSONBody(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	r.body = data
	r.contentType = "application/json"
	return nil
}

// SetFormData sets a URL-encoded form body.
func (r *HttpRequest) SetFormData(fields map[string]string) {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	r.body = []byte(form.Encode())
	r.contentType = "application/x-www-form-urlencoded"
}

// buildHttpRequest materializes the request for dispatch.
func (r *HttpRequest) buildHttpRequest(ctx context.Context) (*http.Request, error) {
	if r.URL == "" {
		return nil, fmt.Errorf("request URL is required")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target := r.URL
	if len(r.queryParams) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.queryParams.Encode()
	}

	var body *bytes.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	return httpReq, nil
}
