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

package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/config"
	"github.com/caas-team/kestrel/pkg/kestrel"
	"github.com/caas-team/kestrel/pkg/kestrel/metrics"
	"github.com/caas-team/kestrel/pkg/sink"
)

// NewCmdRun creates a new run command
func NewCmdRun(version string) *cobra.Command {
	flagMapping := config.RunFlagsNameMapping{
		ApiListeningAddress: "apiAddress",

		SleepTime:    "sleepTime",
		CheckTimeout: "checkTimeout",
		GracePeriod:  "gracePeriod",

		LoaderType:           "loaderType",
		LoaderInterval:       "loaderInterval",
		LoaderHttpUrl:        "loaderHttpUrl",
		LoaderHttpToken:      "loaderHttpToken",
		LoaderHttpTimeout:    "loaderHttpTimeout",
		LoaderHttpRetryCount: "loaderHttpRetryCount",
		LoaderHttpRetryDelay: "loaderHttpRetryDelay",
		LoaderFilePath:       "loaderFilePath",

		HubAddress:    "hubAddress",
		HubToken:      "hubToken",
		HubTimeout:    "hubTimeout",
		HubRateLimit:  "hubRateLimit",
		HubRetryCount: "hubRetryCount",
		HubRetryDelay: "hubRetryDelay",

		TelemetryExporter: "telemetryExporter",
		TelemetryUrl:      "telemetryUrl",
		TelemetryToken:    "telemetryToken",
		TelemetryCertPath: "telemetryCertPath",
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run kestrel",
		Long:  `Kestrel will be started with the provided configuration`,
		Run:   run(&flagMapping, version),
	}

	viper.SetEnvPrefix("KESTREL")
	viper.AutomaticEnv()

	NewFlag(flagMapping.ApiListeningAddress, flagMapping.ApiListeningAddress).String().
		Bind(cmd, ":8080", "api: The address the server is listening on")

	NewFlag(flagMapping.SleepTime, flagMapping.SleepTime).Int().
		Bind(cmd, 2, "The interval in seconds the scheduler scans for due checks")
	NewFlag(flagMapping.CheckTimeout, flagMapping.CheckTimeout).Int().
		Bind(cmd, 10, "The fallback time budget in seconds for checks without their own timeout")
	NewFlag(flagMapping.GracePeriod, flagMapping.GracePeriod).Int().
		Bind(cmd, 30, "The time in seconds in-flight checks get to finish during shutdown")

	NewFlag(flagMapping.LoaderType, flagMapping.LoaderType).StringP("l").
		Bind(cmd, "file", "defines the loader type that will load the runtime configuration. The fallback is the fileLoader")
	NewFlag(flagMapping.LoaderInterval, flagMapping.LoaderInterval).Int().
		Bind(cmd, 90, "defines the interval the loader reloads the configuration in seconds")
	NewFlag(flagMapping.LoaderHttpUrl, flagMapping.LoaderHttpUrl).String().
		Bind(cmd, "", "http loader: The url where to get the remote configuration")
	NewFlag(flagMapping.LoaderHttpToken, flagMapping.LoaderHttpToken).String().
		Bind(cmd, "", "http loader: Bearer token to authenticate the http endpoint")
	NewFlag(flagMapping.LoaderHttpTimeout, flagMapping.LoaderHttpTimeout).Int().
		Bind(cmd, 30, "http loader: The timeout for the http request in seconds")
	NewFlag(flagMapping.LoaderHttpRetryCount, flagMapping.LoaderHttpRetryCount).Int().
		Bind(cmd, 3, "http loader: Amount of retries trying to load the configuration")
	NewFlag(flagMapping.LoaderHttpRetryDelay, flagMapping.LoaderHttpRetryDelay).Int().
		Bind(cmd, 1, "http loader: The initial delay between retries in seconds")
	NewFlag(flagMapping.LoaderFilePath, flagMapping.LoaderFilePath).String().
		Bind(cmd, "config.yaml", "file loader: The path to the file to read the runtime configuration from")

	NewFlag(flagMapping.HubAddress, flagMapping.HubAddress).String().
		Bind(cmd, "", "hub: The address of the collector to upload outcomes to. Outcomes go to stdout when empty")
	NewFlag(flagMapping.HubToken, flagMapping.HubToken).String().
		Bind(cmd, "", "hub: Bearer token to authenticate the collector")
	NewFlag(flagMapping.HubTimeout, flagMapping.HubTimeout).Int().
		Bind(cmd, 30, "hub: The timeout for one upload request in seconds")
	NewFlag(flagMapping.HubRateLimit, flagMapping.HubRateLimit).Float64().
		Bind(cmd, 0, "hub: Maximum upload batches per second, 0 disables throttling")
	NewFlag(flagMapping.HubRetryCount, flagMapping.HubRetryCount).Int().
		Bind(cmd, 3, "hub: Amount of retries for one upload batch")
	NewFlag(flagMapping.HubRetryDelay, flagMapping.HubRetryDelay).Int().
		Bind(cmd, 1, "hub: The initial delay between upload retries in seconds")

	NewFlag(flagMapping.TelemetryExporter, flagMapping.TelemetryExporter).String().
		Bind(cmd, "noop", "telemetry: The trace exporter to use, one of http, grpc, stdout, noop")
	NewFlag(flagMapping.TelemetryUrl, flagMapping.TelemetryUrl).String().
		Bind(cmd, "", "telemetry: The endpoint of the otlp collector")
	NewFlag(flagMapping.TelemetryToken, flagMapping.TelemetryToken).String().
		Bind(cmd, "", "telemetry: Bearer token to authenticate the otlp collector")
	NewFlag(flagMapping.TelemetryCertPath, flagMapping.TelemetryCertPath).String().
		Bind(cmd, "", "telemetry: The path to the CA bundle of the otlp collector. Empty or \"insecure\" disables TLS")

	return cmd
}

// run is the entry point to start the kestrel agent
func run(fm *config.RunFlagsNameMapping, version string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		log := logger.NewLogger()
		ctx := logger.IntoContext(context.Background(), log)
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := getConfig(fm)

		if err := cfg.Validate(ctx, fm); err != nil {
			log.Error("Error while validating the config", "error", err)
			panic(err)
		}

		k := kestrel.New(cfg, version)

		log.Info("Running kestrel", "version", version)
		if err := k.Run(ctx); err != nil {
			log.Error("Error while running kestrel", "error", err)
			panic(err)
		}
	}
}

// getConfig assembles the startup configuration from the bound flags
func getConfig(fm *config.RunFlagsNameMapping) *config.Config {
	return &config.Config{
		SleepTime:    time.Duration(viper.GetInt(fm.SleepTime)) * time.Second,
		CheckTimeout: time.Duration(viper.GetInt(fm.CheckTimeout)) * time.Second,
		GracePeriod:  time.Duration(viper.GetInt(fm.GracePeriod)) * time.Second,
		Api: config.ApiConfig{
			ListeningAddress: viper.GetString(fm.ApiListeningAddress),
		},
		Loader: config.LoaderConfig{
			Type:     viper.GetString(fm.LoaderType),
			Interval: time.Duration(viper.GetInt(fm.LoaderInterval)) * time.Second,
			Http: config.HttpLoaderConfig{
				Url:     viper.GetString(fm.LoaderHttpUrl),
				Token:   viper.GetString(fm.LoaderHttpToken),
				Timeout: time.Duration(viper.GetInt(fm.LoaderHttpTimeout)) * time.Second,
				RetryCfg: helper.RetryConfig{
					Count: viper.GetInt(fm.LoaderHttpRetryCount),
					Delay: time.Duration(viper.GetInt(fm.LoaderHttpRetryDelay)) * time.Second,
				},
			},
			File: config.FileLoaderConfig{
				Path: viper.GetString(fm.LoaderFilePath),
			},
		},
		Hub: sink.HubConfig{
			Address:   viper.GetString(fm.HubAddress),
			Token:     viper.GetString(fm.HubToken),
			Timeout:   time.Duration(viper.GetInt(fm.HubTimeout)) * time.Second,
			RateLimit: viper.GetFloat64(fm.HubRateLimit),
			Retry: helper.RetryConfig{
				Count: viper.GetInt(fm.HubRetryCount),
				Delay: time.Duration(viper.GetInt(fm.HubRetryDelay)) * time.Second,
			},
		},
		Telemetry: metrics.Config{
			Exporter: metrics.Exporter(viper.GetString(fm.TelemetryExporter)),
			Url:      viper.GetString(fm.TelemetryUrl),
			Token:    viper.GetString(fm.TelemetryToken),
			CertPath: viper.GetString(fm.TelemetryCertPath),
		},
	}
}
