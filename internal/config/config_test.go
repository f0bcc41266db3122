package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name   string
		check  func(*Config) bool
		expect string
	}{
		{"default mode is api", func(c *Config) bool { return c.Mode == "api" }, "api"},
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }, "0.0.0.0"},
		{"default port is 8081", func(c *Config) bool { return c.Port == 8081 }, "8081"},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }, "info"},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }, "json"},
		{"default operations poll interval", func(c *Config) bool { return c.OperationsPollIntervalMS == 1000 }, "1000"},
		{"default operations stale-after", func(c *Config) bool { return c.OperationsStaleAfter.String() == "5m0s" }, "5m0s"},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8081" }, "0.0.0.0:8081"},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("expected %s", tt.expect)
			}
		})
	}
}
