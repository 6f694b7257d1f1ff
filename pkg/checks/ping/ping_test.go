package ping

import (
	"errors"
	"testing"

	"github.com/caas-team/kestrel/pkg/checks"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name        string
		assetConfig map[string]any
		checkConfig map[string]any
		want        config
		wantErr     bool
	}{
		{
			name:        "host from asset config",
			assetConfig: map[string]any{"host": "one.example.com"},
			want:        config{Host: "one.example.com", Count: defaultCount},
		},
		{
			name:        "check config overrides count",
			assetConfig: map[string]any{"host": "one.example.com", "count": 3},
			checkConfig: map[string]any{"count": 10},
			want:        config{Host: "one.example.com", Count: 10},
		},
		{
			name:        "count decoded from string",
			assetConfig: map[string]any{"host": "one.example.com", "count": "5"},
			want:        config{Host: "one.example.com", Count: 5},
		},
		{
			name:    "missing host",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfig(tt.assetConfig, tt.checkConfig)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var cfgErr checks.ErrInvalidConfig
				if !errors.As(err, &cfgErr) {
					t.Errorf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
