package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.River.DistanceThresholdM != 300 {
		t.Errorf("River.DistanceThresholdM = %v, want 300", cfg.River.DistanceThresholdM)
	}
	if cfg.Overpass.Endpoint == "" {
		t.Error("Overpass.Endpoint should have a default")
	}
	if cfg.Overpass.Timeout != 60*time.Second {
		t.Errorf("Overpass.Timeout = %v, want 60s", cfg.Overpass.Timeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RIVER_MATCH_DISTANCE_M", "150.5")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FLOOD_MODEL_DIR", "/data/bgflood")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.River.DistanceThresholdM != 150.5 {
		t.Errorf("River.DistanceThresholdM = %v, want 150.5", cfg.River.DistanceThresholdM)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.River.BGFloodDir != "/data/bgflood" {
		t.Errorf("River.BGFloodDir = %q, want /data/bgflood", cfg.River.BGFloodDir)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, _ := LoadConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero threshold rejected", func(c *Config) { c.River.DistanceThresholdM = 0 }, true},
		{"negative threshold rejected", func(c *Config) { c.River.DistanceThresholdM = -10 }, true},
		{"bad port rejected", func(c *Config) { c.Server.Port = -1 }, true},
		{"empty db host rejected", func(c *Config) { c.Database.Host = "" }, true},
		{"empty overpass endpoint rejected", func(c *Config) { c.Overpass.Endpoint = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
