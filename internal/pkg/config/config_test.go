package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("dep-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Climate.Resolution != 0.01 || cfg.Climate.Window != 40 {
		t.Errorf("expected 0.01/40 grid, got %v/%d", cfg.Climate.Resolution, cfg.Climate.Window)
	}
	if cfg.Climate.West != -126 || cfg.Climate.North != 50 {
		t.Errorf("unexpected domain bounds %+v", cfg.Climate)
	}
	if cfg.Telemetry.ServiceName != "dep-test" {
		t.Errorf("expected service name dep-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEP_CLIMATE_LOCATOR", "spiral")
	t.Setenv("DEP_DATABASE_HOST", "iemdb-idep.local")

	cfg, err := Load("dep-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Climate.Locator != "spiral" {
		t.Errorf("expected spiral locator, got %s", cfg.Climate.Locator)
	}
	if cfg.Database.Host != "iemdb-idep.local" {
		t.Errorf("expected env host, got %s", cfg.Database.Host)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("dep-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Server.Port = 0
	cfg.Climate.Locator = "nearest"
	cfg.Climate.West = -60

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "climate.locator", "west < east"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
