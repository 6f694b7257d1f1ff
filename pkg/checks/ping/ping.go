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

// Package ping measures ICMP reachability and round trip times. It uses a
// raw socket when the process holds CAP_NET_RAW and falls back to
// unprivileged UDP pings otherwise.
package ping

import (
	"context"
	"fmt"
	"time"

	gping "github.com/go-ping/ping"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
)

const CheckName = "ping"

const (
	defaultCount   = 3
	defaultTimeout = 5 * time.Second
)

type config struct {
	Host  string `mapstructure:"host"`
	Count int    `mapstructure:"count"`
}

// Run pings the configured host and reports packet loss and round trip
// statistics. Partial packet loss yields the gathered statistics alongside
// a low severity note; total loss is a failure.
func Run(ctx context.Context, _ assets.Asset, assetConfig, checkConfig map[string]any) (checks.Result, error) {
	cfg, err := parseConfig(assetConfig, checkConfig)
	if err != nil {
		return nil, err
	}

	pinger, err := gping.NewPinger(cfg.Host)
	if err != nil {
		return nil, checks.ErrInvalidConfig{CheckName: CheckName, Field: "host", Reason: err.Error()}
	}
	pinger.SetPrivileged(helper.CanUseRawSockets())
	pinger.Count = cfg.Count
	pinger.Timeout = defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	if err := pinger.Run(); err != nil {
		return nil, &checks.Error{Message: fmt.Sprintf("ping to %s failed: %v", cfg.Host, err)}
	}
	stats := pinger.Statistics()

	result := checks.Result{
		"ping": []checks.Item{{
			"name":            cfg.Host,
			"packetsSent":     stats.PacketsSent,
			"packetsReceived": stats.PacketsRecv,
			"packetLoss":      stats.PacketLoss,
			"minRtt":          stats.MinRtt.Seconds(),
			"avgRtt":          stats.AvgRtt.Seconds(),
			"maxRtt":          stats.MaxRtt.Seconds(),
		}},
	}

	switch {
	case stats.PacketsRecv == 0:
		return nil, &checks.Error{
			Message:  fmt.Sprintf("host %s answered none of %d pings", cfg.Host, stats.PacketsSent),
			Severity: checks.SeverityHigh,
		}
	case stats.PacketsRecv < stats.PacketsSent:
		return nil, &checks.IncompleteError{
			Result:  result,
			Message: fmt.Sprintf("lost %.0f%% of pings to %s", stats.PacketLoss, cfg.Host),
		}
	}
	return result, nil
}

func parseConfig(assetConfig, checkConfig map[string]any) (config, error) {
	cfg, err := helper.Decode[config](checks.MergedConfig(assetConfig, checkConfig))
	if err != nil {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "config", Reason: err.Error()}
	}
	if cfg.Host == "" {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "host", Reason: "must not be empty"}
	}
	if cfg.Count <= 0 {
		cfg.Count = defaultCount
	}
	return cfg, nil
}
