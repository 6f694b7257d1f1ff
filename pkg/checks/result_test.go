package checks

import "testing"

func TestResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		wantErr bool
	}{
		{
			name:    "empty result",
			result:  Result{},
			wantErr: false,
		},
		{
			name:    "nil result",
			result:  nil,
			wantErr: false,
		},
		{
			name: "named items",
			result: Result{
				"interface": []Item{{"name": "eth0", "rx": 100}, {"name": "eth1", "rx": 7}},
				"system":    []Item{{"name": "uptime", "seconds": 12}},
			},
			wantErr: false,
		},
		{
			name:    "missing name",
			result:  Result{"interface": []Item{{"rx": 100}}},
			wantErr: true,
		},
		{
			name:    "empty name",
			result:  Result{"interface": []Item{{"name": ""}}},
			wantErr: true,
		},
		{
			name:    "non string name",
			result:  Result{"interface": []Item{{"name": 3}}},
			wantErr: true,
		},
		{
			name:    "non ascii name",
			result:  Result{"interface": []Item{{"name": "schnittstelle-ä"}}},
			wantErr: true,
		},
		{
			name:    "duplicate within a type",
			result:  Result{"interface": []Item{{"name": "eth0"}, {"name": "eth0"}}},
			wantErr: true,
		},
		{
			name: "same name across types is fine",
			result: Result{
				"interface": []Item{{"name": "eth0"}},
				"errors":    []Item{{"name": "eth0"}},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResult_Order(t *testing.T) {
	r := Result{
		"disk": []Item{{"name": "sdc"}, {"name": "sda"}, {"name": "sdb"}},
		"cpu":  []Item{{"name": "1"}, {"name": "0"}},
	}

	r.Order()

	wantDisk := []string{"sda", "sdb", "sdc"}
	for i, item := range r["disk"] {
		if item.Name() != wantDisk[i] {
			t.Errorf("disk[%d] = %q, want %q", i, item.Name(), wantDisk[i])
		}
	}
	wantCPU := []string{"0", "1"}
	for i, item := range r["cpu"] {
		if item.Name() != wantCPU[i] {
			t.Errorf("cpu[%d] = %q, want %q", i, item.Name(), wantCPU[i])
		}
	}
}
