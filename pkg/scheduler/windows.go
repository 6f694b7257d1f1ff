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

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/assets"
)

// muteWindow is a compiled mute window of a binding.
type muteWindow struct {
	schedule cron.Schedule
	duration time.Duration
}

// compileWindows parses the mute windows of a check spec. Invalid entries
// are logged and skipped; asset validation normally rejects them earlier.
func compileWindows(ctx context.Context, specs []assets.MuteWindow) []muteWindow {
	log := logger.FromContext(ctx)
	var windows []muteWindow
	for _, w := range specs {
		schedule, err := cron.ParseStandard(w.Cron)
		if err != nil {
			log.Error("Ignoring invalid mute window", "cron", w.Cron, "error", err)
			continue
		}
		if w.Duration <= 0 {
			log.Error("Ignoring mute window without duration", "cron", w.Cron)
			continue
		}
		windows = append(windows, muteWindow{schedule: schedule, duration: w.Duration.Std()})
	}
	return windows
}

// active reports whether t lies inside the window. The window opens at
// every firing of the schedule and stays open for its duration.
func (w muteWindow) active(t time.Time) bool {
	previous := w.schedule.Next(t.Add(-w.duration))
	return !previous.After(t) && t.Sub(previous) <= w.duration
}

func muted(windows []muteWindow, t time.Time) bool {
	for _, w := range windows {
		if w.active(t) {
			return true
		}
	}
	return false
}
