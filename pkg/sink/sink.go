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

// Package sink forwards finished check reports to their destination, either
// the collector hub or a local writer.
package sink

import (
	"context"

	"github.com/caas-team/kestrel/pkg/checks"
)

// Sink consumes finished check reports.
type Sink interface {
	// Deliver accepts reports for forwarding. It must not block on network
	// IO; queueing and retrying are the implementation's concern.
	Deliver(ctx context.Context, reports ...checks.Report) error
}
