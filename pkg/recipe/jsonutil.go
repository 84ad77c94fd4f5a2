// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// object is a JSON object decoded while preserving source key order and the
// byte offset of each key, so that validation errors can quote the relevant
// source window and downstream components can iterate tasks/aliases in the
// order the operator wrote them.
type object struct {
	Order   []string
	Fields  map[string]json.RawMessage
	Offsets map[string]int
}

// decodeObject walks a JSON object token-by-token (rather than unmarshaling
// into a map) so that key order and key byte-offsets survive decoding; plain
// map[string]json.RawMessage unmarshaling loses both.
func decodeObject(raw json.RawMessage) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	o := &object{
		Fields:  map[string]json.RawMessage{},
		Offsets: map[string]int{},
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		o.Offsets[key] = int(dec.InputOffset())

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("decoding value for key %q: %w", key, err)
		}

		o.Order = append(o.Order, key)
		o.Fields[key] = val
	}
	return o, nil
}

// checkUnknown returns an error naming the first key in o.Order that is not
// present in allowed.
func (o *object) checkUnknown(path string, allowed map[string]bool) error {
	for _, k := range o.Order {
		if !allowed[k] {
			return &ValidationError{
				Path:    joinPath(path, k),
				Message: fmt.Sprintf("unknown key %q", k),
				Offset:  o.Offsets[k],
			}
		}
	}
	return nil
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
