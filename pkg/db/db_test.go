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

package db

import (
	"testing"

	"github.com/caas-team/kestrel/pkg/checks"
)

func report(assetID, check string, kind checks.Kind) checks.Report {
	return checks.Report{
		AssetID:   assetID,
		AssetName: "asset-" + assetID,
		Check:     check,
		Outcome:   checks.Outcome{Kind: kind},
	}
}

func TestInMemory_SaveAndGet(t *testing.T) {
	i := NewInMemory()

	i.Save(report("1", "web", checks.KindSuccess))

	got, ok := i.Get("1", "web")
	if !ok {
		t.Fatal("Get() did not find the saved report")
	}
	if got.Outcome.Kind != checks.KindSuccess {
		t.Errorf("Get() kind = %v, want %v", got.Outcome.Kind, checks.KindSuccess)
	}

	// the latest report of a binding wins
	i.Save(report("1", "web", checks.KindFailure))
	got, _ = i.Get("1", "web")
	if got.Outcome.Kind != checks.KindFailure {
		t.Errorf("Get() after second save kind = %v, want %v", got.Outcome.Kind, checks.KindFailure)
	}
}

func TestInMemory_GetNotFound(t *testing.T) {
	i := NewInMemory()
	i.Save(report("1", "web", checks.KindSuccess))

	if _, ok := i.Get("1", "ping"); ok {
		t.Error("Get() found a report for an unknown check")
	}
	if _, ok := i.Get("2", "web"); ok {
		t.Error("Get() found a report for an unknown asset")
	}
}

func TestInMemory_List(t *testing.T) {
	i := NewInMemory()
	i.Save(report("2", "web", checks.KindSuccess))
	i.Save(report("1", "web", checks.KindSuccess))
	i.Save(report("1", "ping", checks.KindFailure))

	got := i.List()
	if len(got) != 3 {
		t.Fatalf("List() returned %d reports, want 3", len(got))
	}

	wantOrder := []struct{ assetID, check string }{
		{"1", "ping"}, {"1", "web"}, {"2", "web"},
	}
	for n, want := range wantOrder {
		if got[n].AssetID != want.assetID || got[n].Check != want.check {
			t.Errorf("List()[%d] = (%s, %s), want (%s, %s)", n, got[n].AssetID, got[n].Check, want.assetID, want.check)
		}
	}
}

func TestInMemory_ListByAsset(t *testing.T) {
	i := NewInMemory()
	i.Save(report("1", "web", checks.KindSuccess))
	i.Save(report("1", "ping", checks.KindSuccess))
	i.Save(report("2", "web", checks.KindSuccess))

	got := i.ListByAsset("1")
	if len(got) != 2 {
		t.Fatalf("ListByAsset(1) returned %d reports, want 2", len(got))
	}
	for _, r := range got {
		if r.AssetID != "1" {
			t.Errorf("ListByAsset(1) returned a report of asset %s", r.AssetID)
		}
	}

	if got := i.ListByAsset("nope"); len(got) != 0 {
		t.Errorf("ListByAsset(nope) returned %d reports, want 0", len(got))
	}
}
