// kestrel
// (C) 2023, Deutsche Telekom IT GmbH
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

// Package db keeps the latest report per binding for the agent's API.
package db

import (
	"sort"
	"sync"

	"github.com/caas-team/kestrel/pkg/checks"
)

type DB interface {
	// Save stores the report as the latest one of its binding.
	Save(report checks.Report)
	// Get returns the latest report of the (asset, check) binding.
	Get(assetID, check string) (report checks.Report, ok bool)
	// List returns the latest report of every binding, ordered by asset id
	// and check name.
	List() []checks.Report
	// ListByAsset returns the latest report of every binding of one asset,
	// ordered by check name.
	ListByAsset(assetID string) []checks.Report
}

var _ DB = (*InMemory)(nil)

type InMemory struct {
	// if we ever want a timeseries we can swap the value for a ringbuffer
	// of the last N reports without touching the interface
	data sync.Map
}

// NewInMemory creates a new in-memory database
func NewInMemory() *InMemory {
	return &InMemory{
		data: sync.Map{},
	}
}

type bindingKey struct {
	assetID string
	check   string
}

func (i *InMemory) Save(report checks.Report) {
	i.data.Store(bindingKey{assetID: report.AssetID, check: report.Check}, report)
}

func (i *InMemory) Get(assetID, check string) (checks.Report, bool) {
	tmp, ok := i.data.Load(bindingKey{assetID: assetID, check: check})
	if !ok {
		return checks.Report{}, false
	}
	// this assertion should not fail, unless we have a bug somewhere
	report := tmp.(checks.Report)

	return report, true
}

func (i *InMemory) List() []checks.Report {
	return i.list(func(bindingKey) bool { return true })
}

func (i *InMemory) ListByAsset(assetID string) []checks.Report {
	return i.list(func(k bindingKey) bool { return k.assetID == assetID })
}

func (i *InMemory) list(match func(bindingKey) bool) []checks.Report {
	var reports []checks.Report
	i.data.Range(func(key, value any) bool {
		// these assertions should not fail, unless we have a bug somewhere
		k := key.(bindingKey)
		report := value.(checks.Report)

		if match(k) {
			reports = append(reports, report)
		}
		return true
	})

	sort.Slice(reports, func(a, b int) bool {
		if reports[a].AssetID != reports[b].AssetID {
			return reports[a].AssetID < reports[b].AssetID
		}
		return reports[a].Check < reports[b].Check
	})
	return reports
}
