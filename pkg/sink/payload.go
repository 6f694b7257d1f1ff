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
	"time"

	"github.com/caas-team/kestrel/pkg/checks"
)

// envelope is the wire format of one hub upload.
type envelope struct {
	AgentID  string          `json:"agentId" yaml:"agentId"`
	Version  string          `json:"version" yaml:"version"`
	SentAt   time.Time       `json:"sentAt" yaml:"sentAt"`
	BatchSeq uint64          `json:"batchSeq" yaml:"batchSeq"`
	Reports  []reportPayload `json:"reports" yaml:"reports"`
}

// reportPayload is a report plus the bookkeeping block the hub expects on
// every entry.
type reportPayload struct {
	checks.Report `yaml:",inline"`
	Framework     framework `json:"framework" yaml:"framework"`
}

type framework struct {
	// Duration is the check wall clock time in seconds.
	Duration float64 `json:"duration" yaml:"duration"`
	// Timestamp is the check start in unix seconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`
}

func wrap(r checks.Report) reportPayload {
	return reportPayload{
		Report: r,
		Framework: framework{
			Duration:  r.Duration.Seconds(),
			Timestamp: r.Timestamp.Unix(),
		},
	}
}

func wrapAll(reports []checks.Report) []reportPayload {
	payloads := make([]reportPayload, 0, len(reports))
	for _, r := range reports {
		payloads = append(payloads, wrap(r))
	}
	return payloads
}
