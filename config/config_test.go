package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	if cfg.Curation.MinDistance != 0.3 || cfg.Curation.MaxDistance != 0.8 {
		t.Errorf("default zone = [%g, %g]", cfg.Curation.MinDistance, cfg.Curation.MaxDistance)
	}
	if cfg.Curation.DailyLimit != 20 || cfg.Curation.QualityFloor != 70 {
		t.Errorf("default curation = %+v", cfg.Curation)
	}
	if cfg.Vector.Dimension != 384 {
		t.Errorf("default dimension = %d", cfg.Vector.Dimension)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted zone", func(c *Config) { c.Curation.MinDistance = 0.9; c.Curation.MaxDistance = 0.2 }},
		{"zone above 2", func(c *Config) { c.Curation.MaxDistance = 2.5 }},
		{"quality floor above 100", func(c *Config) { c.Curation.QualityFloor = 120 }},
		{"zero daily limit", func(c *Config) { c.Curation.DailyLimit = 0 }},
		{"bad timezone", func(c *Config) { c.Curation.Timezone = "Mars/Olympus" }},
		{"unknown source", func(c *Config) { c.Curation.SourcePriority = []string{"MYSPACE"} }},
		{"bad fail mode", func(c *Config) { c.Curation.QuotaFailMode = "maybe" }},
		{"bad embedding provider", func(c *Config) { c.Embedding.Provider = "markov" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  addr: ":9100"
curation:
  daily_limit: 5
  timezone: America/New_York
logging:
  level: debug
`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Curation.DailyLimit != 5 {
		t.Errorf("DailyLimit = %d", cfg.Curation.DailyLimit)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Errorf("Location = %s", cfg.Location())
	}
	// Untouched keys keep their defaults.
	if cfg.Curation.QualityFloor != 70 {
		t.Errorf("QualityFloor = %g", cfg.Curation.QualityFloor)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BLOOMFEED_SERVER_ADDR", ":9200")
	t.Setenv("BLOOMFEED_CURATION_QUOTA_FAIL_MODE", "closed")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9100\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9200" {
		t.Errorf("env should win over file, Addr = %q", cfg.Server.Addr)
	}
	if cfg.Curation.QuotaFailMode != "closed" {
		t.Errorf("QuotaFailMode = %q", cfg.Curation.QuotaFailMode)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("curation:\n  daily_limit: 0\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load accepted a config with daily_limit 0")
	}
}

func TestSourcePriorityTyped(t *testing.T) {
	cfg := Default()
	got := cfg.SourcePriority()
	if len(got) == 0 {
		t.Fatal("empty default source priority")
	}
	for i, s := range cfg.Curation.SourcePriority {
		if string(got[i]) != s {
			t.Errorf("SourcePriority[%d] = %q, want %q", i, got[i], s)
		}
	}
}
