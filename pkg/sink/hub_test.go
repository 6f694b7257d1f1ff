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

package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/pkg/checks"
)

func testReport(id, check string) checks.Report {
	return checks.Report{
		AssetID:   id,
		AssetName: "asset-" + id,
		Check:     check,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Outcome: checks.Outcome{
			Kind: checks.KindSuccess,
			Result: checks.Result{
				"system": []checks.Item{{"name": "host"}},
			},
		},
	}
}

func TestHub_Deliver(t *testing.T) {
	h := NewHub(HubConfig{Address: "https://hub.test.com"}, "0.1.0")

	err := h.Deliver(context.Background(), testReport("1", "web"), testReport("2", "web"))
	require.NoError(t, err)

	h.mu.Lock()
	queued := len(h.queue)
	h.mu.Unlock()
	if queued != 2 {
		t.Errorf("Hub.Deliver() queued = %d, want 2", queued)
	}
	if !h.Healthy(context.Background()) {
		t.Error("Hub.Healthy() = false, want true")
	}
}

func TestHub_Flush(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	h := NewHub(HubConfig{
		Address: "https://hub.test.com",
		Token:   "SECRET",
		Retry:   helper.RetryConfig{Count: 1, Delay: time.Millisecond},
	}, "0.1.0")

	var got envelope
	httpmock.RegisterResponder(http.MethodPost, "https://hub.test.com/v1/reports",
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "Bearer SECRET", req.Header.Get("Authorization"))
			require.Equal(t, "application/json", req.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			resp, _ := httpmock.NewStringResponder(200, "")(req)
			return resp, nil
		},
	)

	require.NoError(t, h.Deliver(context.Background(), testReport("1", "web"), testReport("2", "ping")))
	require.NoError(t, h.Flush(context.Background()))

	if got.AgentID != h.agentID {
		t.Errorf("envelope agentId = %q, want %q", got.AgentID, h.agentID)
	}
	if got.Version != "0.1.0" {
		t.Errorf("envelope version = %q, want %q", got.Version, "0.1.0")
	}
	if got.BatchSeq != 1 {
		t.Errorf("envelope batchSeq = %d, want 1", got.BatchSeq)
	}
	if len(got.Reports) != 2 {
		t.Fatalf("envelope reports = %d, want 2", len(got.Reports))
	}
	want := testReport("1", "web")
	if got.Reports[0].Framework.Timestamp != want.Timestamp.Unix() {
		t.Errorf("framework timestamp = %d, want %d", got.Reports[0].Framework.Timestamp, want.Timestamp.Unix())
	}
	if got.Reports[0].Framework.Duration != want.Duration.Seconds() {
		t.Errorf("framework duration = %f, want %f", got.Reports[0].Framework.Duration, want.Duration.Seconds())
	}

	h.mu.Lock()
	queued := len(h.queue)
	h.mu.Unlock()
	if queued != 0 {
		t.Errorf("queue after flush = %d, want 0", queued)
	}
}

func TestHub_Flush_RequeuesOnFailure(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	h := NewHub(HubConfig{
		Address: "https://hub.test.com",
		Retry:   helper.RetryConfig{Count: 1, Delay: time.Millisecond},
	}, "0.1.0")

	httpmock.RegisterResponder(http.MethodPost, "https://hub.test.com/v1/reports",
		httpmock.NewStringResponder(500, "boom"),
	)

	require.NoError(t, h.Deliver(context.Background(), testReport("1", "web")))

	err := h.Flush(context.Background())
	if err == nil {
		t.Fatal("Hub.Flush() error = nil, want upload error")
	}
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) || uploadErr.Code != 500 {
		t.Errorf("Hub.Flush() error = %v, want status 500 upload error", err)
	}

	h.mu.Lock()
	queued := len(h.queue)
	h.mu.Unlock()
	if queued != 1 {
		t.Errorf("queue after failed flush = %d, want 1", queued)
	}
}

func TestHub_Send_RetriesTransientFailures(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	h := NewHub(HubConfig{
		Address: "https://hub.test.com",
		Retry:   helper.RetryConfig{Count: 3, Delay: time.Millisecond},
	}, "0.1.0")

	calls := 0
	httpmock.RegisterResponder(http.MethodPost, "https://hub.test.com/v1/reports",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("connection reset")
			}
			resp, _ := httpmock.NewStringResponder(200, "")(req)
			return resp, nil
		},
	)

	require.NoError(t, h.Deliver(context.Background(), testReport("1", "web")))
	require.NoError(t, h.Flush(context.Background()))

	if calls != 2 {
		t.Errorf("upload attempts = %d, want 2", calls)
	}
}

func TestHub_Run_DrainsQueue(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://hub.test.com/v1/reports",
		httpmock.NewStringResponder(200, ""),
	)

	h := NewHub(HubConfig{
		Address: "https://hub.test.com",
		Retry:   helper.RetryConfig{Count: 1, Delay: time.Millisecond},
	}, "0.1.0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.NoError(t, h.Deliver(ctx, testReport("1", "web")))

	deadline := time.After(5 * time.Second)
	for httpmock.GetTotalCallCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("hub did not drain the queue in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Hub.Run() error = %v, want nil", err)
	}
}
