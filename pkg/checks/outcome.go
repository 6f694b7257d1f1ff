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
	"context"
	"errors"
	"fmt"
)

// Kind discriminates the terminal states of a check invocation.
type Kind string

const (
	// KindSuccess carries a complete result payload.
	KindSuccess Kind = "success"
	// KindPartial carries the payload of a check that could only gather
	// part of its result.
	KindPartial Kind = "partial"
	// KindSuppressed drops the cycle's result on the check's request.
	KindSuppressed Kind = "suppressed"
	// KindDisabled takes the binding out of scheduling on the check's
	// request.
	KindDisabled Kind = "disabled"
	// KindFailure carries a failure message for the collector.
	KindFailure Kind = "failure"
)

// Outcome is the normalized terminal state of exactly one check invocation.
type Outcome struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Result   Result   `json:"result,omitempty" yaml:"result,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// Deliverable reports whether the outcome produces a report for the store
// and the sink. Suppressed and disabled outcomes produce nothing.
func (o Outcome) Deliverable() bool {
	return o.Kind != KindSuppressed && o.Kind != KindDisabled
}

// Classify maps the terminal state of one check invocation onto exactly one
// outcome. The mapping is total: any condition not recognized as part of the
// check error protocol is coerced into a failure outcome, so classification
// itself never fails. Result payloads leave ordered by item name.
func Classify(result Result, err error) Outcome {
	if err == nil {
		if vErr := result.Validate(); vErr != nil {
			return unclassified(vErr)
		}
		result.Order()
		return Outcome{Kind: KindSuccess, Result: result}
	}

	if errors.Is(err, ErrIgnoreResult) {
		return Outcome{Kind: KindSuppressed}
	}
	if errors.Is(err, ErrIgnoreCheck) {
		return Outcome{Kind: KindDisabled}
	}

	var incErr *IncompleteError
	if errors.As(err, &incErr) {
		severity := incErr.Severity
		if severity == "" {
			severity = SeverityLow
		}
		if severity.Validate() != nil {
			return unclassified(err)
		}
		if vErr := incErr.Result.Validate(); vErr != nil {
			return unclassified(vErr)
		}
		incErr.Result.Order()
		return Outcome{Kind: KindPartial, Result: incErr.Result, Message: incErr.Message, Severity: severity}
	}

	var checkErr *Error
	if errors.As(err, &checkErr) {
		severity := checkErr.Severity
		if severity == "" {
			severity = SeverityMedium
		}
		if severity.Validate() != nil {
			return unclassified(err)
		}
		return Outcome{Kind: KindFailure, Message: checkErr.Message, Severity: severity}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: KindFailure, Message: "timeout", Severity: SeverityHigh}
	}

	return unclassified(err)
}

// unclassified coerces an unrecognized condition into the failure row.
func unclassified(err error) Outcome {
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	return Outcome{Kind: KindFailure, Message: msg, Severity: SeverityMedium}
}
