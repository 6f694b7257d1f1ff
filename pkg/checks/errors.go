// kestrel
// (C) 2024, Deutsche Telekom IT GmbH
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
	"errors"
	"fmt"
)

// The error protocol of a check routine. A routine signals a condition to
// the engine by returning one of these from its RunFunc; anything else it
// returns is coerced into a plain failure by the classifier.

// ErrIgnoreResult signals that this cycle's result must be discarded
// without delivering anything.
var ErrIgnoreResult = errors.New("ignore this result")

// ErrIgnoreCheck signals that the binding must never be dispatched again
// until the agent restarts or the binding is re-created.
var ErrIgnoreCheck = errors.New("ignore this check permanently")

// Error is a failure in the check's own domain, carrying a message for the
// collector. A zero severity classifies as medium.
type Error struct {
	Message  string
	Severity Severity
}

func (e *Error) Error() string {
	return e.Message
}

// IncompleteError is returned by a routine that could only gather part of
// its result. The partial payload is still delivered. A zero severity
// classifies as low.
type IncompleteError struct {
	Result   Result
	Message  string
	Severity Severity
}

func (e *IncompleteError) Error() string {
	if e.Message == "" {
		return "incomplete result"
	}
	return "incomplete result: " + e.Message
}

// ErrInvalidConfig is returned when a check configuration is invalid
type ErrInvalidConfig struct {
	CheckName string
	Field     string
	Reason    string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid configuration field %q in check %q: %s", e.Field, e.CheckName, e.Reason)
}
