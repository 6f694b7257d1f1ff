package config

// RunFlagsNameMapping maps the startup configuration to the flag names the
// run command registers. Validation uses it to point at the offending flag.
type RunFlagsNameMapping struct {
	ApiListeningAddress string

	SleepTime    string
	CheckTimeout string
	GracePeriod  string

	LoaderType           string
	LoaderInterval       string
	LoaderHttpUrl        string
	LoaderHttpToken      string
	LoaderHttpTimeout    string
	LoaderHttpRetryCount string
	LoaderHttpRetryDelay string
	LoaderFilePath       string

	HubAddress    string
	HubToken      string
	HubTimeout    string
	HubRateLimit  string
	HubRetryCount string
	HubRetryDelay string

	TelemetryExporter string
	TelemetryUrl      string
	TelemetryToken    string
	TelemetryCertPath string
}
