// kestrel
// (C) 2025, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
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

package checks

import (
	"fmt"
	"sort"
	"unicode"
)

// Result is the payload of a check invocation: a mapping from a result type
// to the items observed for that type. The engine treats the payload as
// opaque apart from the item name contract.
type Result map[string][]Item

// Item is a single named measurement within a result type. The "name" value
// must be a non-empty ascii string, unique within its type list.
type Item map[string]any

// Name returns the item's name, or the empty string if the item violates
// the name contract.
func (i Item) Name() string {
	name, _ := i["name"].(string)
	return name
}

// Validate enforces the item name contract on the whole payload.
func (r Result) Validate() error {
	for typeName, items := range r {
		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			name, ok := item["name"].(string)
			if !ok || name == "" {
				return fmt.Errorf("item in result type %q has no name", typeName)
			}
			if !isASCII(name) {
				return fmt.Errorf("item name %q in result type %q is not ascii", name, typeName)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("duplicate item name %q in result type %q", name, typeName)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}

// Order sorts every type's items by name so serialized results are stable.
func (r Result) Order() {
	for _, items := range r {
		sort.Slice(items, func(i, j int) bool {
			return items[i].Name() < items[j].Name()
		})
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
