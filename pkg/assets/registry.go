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

package assets

import (
	"slices"
	"sync"
)

// Registry is the agent's view of the monitored assets. The scheduler reads
// its work from it; configuration reloads replace the content wholesale.
type Registry struct {
	mu     sync.RWMutex
	assets []Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Replace swaps the registered assets for the given set. The slice is
// copied; callers must not mutate the assets after handing them over.
func (r *Registry) Replace(assets []Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = slices.Clone(assets)
}

// List returns a snapshot of the registered assets in registration order.
func (r *Registry) List() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.assets)
}

// Get looks up an asset by its id.
func (r *Registry) Get(id ID) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}
