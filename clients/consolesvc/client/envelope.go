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
)

// Envelope is the normalized success response of a console API call. Data is
// nil for "no content" responses; otherwise it holds the JSON body (an empty
// object when the body was empty or not valid JSON).
type Envelope struct {
	Data       json.RawMessage
	StatusCode int
	Header     http.Header
}

// Empty reports whether the response carried no data payload.
func (e *Envelope) Empty() bool {
	return len(e.Data) == 0
}

// Decode unmarshals the data payload into v. Decoding an empty envelope is a
// no-op, leaving v untouched.
func (e *Envelope) Decode(v any) error {
	if e.Empty() {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
