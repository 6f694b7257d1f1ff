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

// Package dns resolves a record for a target against a nameserver and
// optionally asserts the answers.
package dns

import (
	"context"
	"fmt"
	"slices"
	"strings"

	mdns "github.com/miekg/dns"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
)

const CheckName = "dns"

const defaultServer = "8.8.8.8:53"

var recordTypes = map[string]uint16{
	"A":     mdns.TypeA,
	"AAAA":  mdns.TypeAAAA,
	"CNAME": mdns.TypeCNAME,
	"MX":    mdns.TypeMX,
	"NS":    mdns.TypeNS,
	"TXT":   mdns.TypeTXT,
}

type config struct {
	Target     string   `mapstructure:"target"`
	Server     string   `mapstructure:"server"`
	RecordType string   `mapstructure:"recordType"`
	Expected   []string `mapstructure:"expected"`
}

// Run queries the nameserver once and reports the answers and the round
// trip time. Missing expected answers fail the check.
func Run(ctx context.Context, _ assets.Asset, assetConfig, checkConfig map[string]any) (checks.Result, error) {
	cfg, rtype, err := parseConfig(assetConfig, checkConfig)
	if err != nil {
		return nil, err
	}

	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(cfg.Target), rtype)

	client := &mdns.Client{}
	resp, rtt, err := client.ExchangeContext(ctx, msg, cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("dns query for %s failed: %w", cfg.Target, err)
	}
	if resp.Rcode != mdns.RcodeSuccess {
		return nil, &checks.Error{
			Message: fmt.Sprintf("dns query for %s returned %s", cfg.Target, mdns.RcodeToString[resp.Rcode]),
		}
	}

	answers := answerValues(resp.Answer)
	result := checks.Result{
		"dns": []checks.Item{{
			"name":       cfg.Target,
			"recordType": cfg.RecordType,
			"server":     cfg.Server,
			"answers":    answers,
			"rtt":        rtt.Seconds(),
		}},
	}

	if len(answers) == 0 {
		return nil, &checks.Error{
			Message: fmt.Sprintf("no %s records for %s", cfg.RecordType, cfg.Target),
		}
	}
	for _, want := range cfg.Expected {
		if !slices.Contains(answers, want) {
			return nil, &checks.Error{
				Message: fmt.Sprintf("expected answer %q for %s, got %v", want, cfg.Target, answers),
			}
		}
	}
	return result, nil
}

func parseConfig(assetConfig, checkConfig map[string]any) (config, uint16, error) {
	cfg, err := helper.Decode[config](checks.MergedConfig(assetConfig, checkConfig))
	if err != nil {
		return config{}, 0, checks.ErrInvalidConfig{CheckName: CheckName, Field: "config", Reason: err.Error()}
	}
	if cfg.Target == "" {
		return config{}, 0, checks.ErrInvalidConfig{CheckName: CheckName, Field: "target", Reason: "must not be empty"}
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	} else if !strings.Contains(cfg.Server, ":") {
		cfg.Server += ":53"
	}
	if cfg.RecordType == "" {
		cfg.RecordType = "A"
	}
	cfg.RecordType = strings.ToUpper(cfg.RecordType)
	rtype, ok := recordTypes[cfg.RecordType]
	if !ok {
		return config{}, 0, checks.ErrInvalidConfig{
			CheckName: CheckName,
			Field:     "recordType",
			Reason:    fmt.Sprintf("unsupported record type %q", cfg.RecordType),
		}
	}
	return cfg, rtype, nil
}

// answerValues renders the answer section into comparable strings.
func answerValues(rrs []mdns.RR) []string {
	values := make([]string, 0, len(rrs))
	for _, rr := range rrs {
		switch r := rr.(type) {
		case *mdns.A:
			values = append(values, r.A.String())
		case *mdns.AAAA:
			values = append(values, r.AAAA.String())
		case *mdns.CNAME:
			values = append(values, strings.TrimSuffix(r.Target, "."))
		case *mdns.MX:
			values = append(values, strings.TrimSuffix(r.Mx, "."))
		case *mdns.NS:
			values = append(values, strings.TrimSuffix(r.Ns, "."))
		case *mdns.TXT:
			values = append(values, strings.Join(r.Txt, " "))
		default:
			values = append(values, rr.String())
		}
	}
	return values
}
