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

package kestrel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/config"
	"github.com/caas-team/kestrel/pkg/kestrel/metrics"
	"github.com/caas-team/kestrel/pkg/sink"
)

func testConfig() *config.Config {
	return &config.Config{
		SleepTime:    50 * time.Millisecond,
		CheckTimeout: time.Second,
		GracePeriod:  100 * time.Millisecond,
		Api:          config.ApiConfig{ListeningAddress: "localhost:0"},
		Loader: config.LoaderConfig{
			Type:     "file",
			Interval: 10 * time.Millisecond,
			File:     config.FileLoaderConfig{Path: "testdata/does-not-exist.yaml"},
		},
		Telemetry: metrics.Config{Exporter: metrics.NOOP},
	}
}

func TestNew(t *testing.T) {
	t.Run("writer sink without hub address", func(t *testing.T) {
		k := New(testConfig(), "dev")
		assert.Nil(t, k.hub)
		assert.NotNil(t, k.writer)
		assert.NotNil(t, k.scheduler)
		assert.NotNil(t, k.loader)
		assert.NotNil(t, k.checker)
	})

	t.Run("hub sink with hub address", func(t *testing.T) {
		cfg := testConfig()
		cfg.Hub = sink.HubConfig{Address: "https://hub.example.com", Timeout: time.Second}
		k := New(cfg, "dev")
		assert.NotNil(t, k.hub)
		assert.Nil(t, k.writer)
	})
}

func TestKestrel_Run_AppliesRuntimeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "assets:\n  - id: 42\n    name: endpoint-a\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := testConfig()
	cfg.Loader.File.Path = path
	k := New(cfg, "dev")

	ctx, cancel := context.WithCancel(context.Background())
	cRun := make(chan error, 1)
	go func() {
		cRun <- k.Run(ctx)
	}()

	deadline := time.After(5 * time.Second)
	for len(k.registry.List()) == 0 {
		select {
		case <-deadline:
			t.Fatal("runtime configuration was never applied")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, "endpoint-a", k.registry.List()[0].Name)

	cancel()
	select {
	case err := <-cRun:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("kestrel did not shut down in time")
	}
}

func TestKestrel_Run_FailsWhenApiCannotListen(t *testing.T) {
	cfg := testConfig()
	cfg.Api.ListeningAddress = "localhost:999999"
	k := New(cfg, "dev")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cRun := make(chan error, 1)
	go func() {
		cRun <- k.Run(ctx)
	}()

	select {
	case err := <-cRun:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected run to fail")
	}
}

func TestKestrel_apply(t *testing.T) {
	k := New(testConfig(), "dev")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := config.Runtime{
		Assets: []assets.Asset{{ID: "42", Name: "endpoint-a"}},
	}
	k.apply(ctx, rt)

	require.Len(t, k.registry.List(), 1)
	assert.Equal(t, assets.ID("42"), k.registry.List()[0].ID)
}
