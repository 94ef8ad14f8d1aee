package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("APP_ENV", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port: %q", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("default env: %q", cfg.Env)
	}
	if cfg.DatabaseDSN == "" {
		t.Fatalf("default dsn empty")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	cfg := Load()
	if cfg.Port != "9090" || cfg.Env != "production" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"0", true, false},
		{"false", true, false},
		{"", true, true},
		{"", false, false},
		{"notabool", false, false},
		{"notabool", true, true},
	}
	for _, c := range cases {
		t.Setenv("TEST_FLAG", c.value)
		if got := ParseBool("TEST_FLAG", c.def); got != c.want {
			t.Fatalf("ParseBool(%q, %v) = %v want %v", c.value, c.def, got, c.want)
		}
	}
}
