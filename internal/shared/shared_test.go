package shared

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1.000"},
		{123456, "123.456"},
		{1234567, "1.234.567"},
		{-1234, "-1.234"},
	}

	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0,0"},
		{2.1, "2,1"},
		{1234.5, "1.234,5"},
		{99.96, "100,0"},
	}

	for _, c := range cases {
		if got := FormatHours(c.in); got != c.want {
			t.Errorf("FormatHours(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseISOTime(t *testing.T) {
	t.Run("parses RFC3339", func(t *testing.T) {
		parsed, ok := ParseISOTime("2020-06-01T10:00:00Z")
		if !ok {
			t.Fatal("expected successful parse")
		}
		if parsed.Year() != 2020 || parsed.Month() != time.June {
			t.Errorf("unexpected time %v", parsed)
		}
	})

	t.Run("rejects sentinels and garbage", func(t *testing.T) {
		for _, value := range []string{"", "0001-01-01T00:00:00Z", "not-a-date"} {
			if _, ok := ParseISOTime(value); ok {
				t.Errorf("expected %q to fail", value)
			}
		}
	})
}

func TestDateBuckets(t *testing.T) {
	if got := YearOf("2020-06-01T10:00:00Z"); got != "2020" {
		t.Errorf("YearOf = %q, want 2020", got)
	}
	if got := YearOf("0001-01-01T00:00:00Z"); got != "" {
		t.Errorf("expected empty year for sentinel, got %q", got)
	}
	if got := MonthKeyOf("2020-06-01T10:00:00Z"); got != "2020-06" {
		t.Errorf("MonthKeyOf = %q, want 2020-06", got)
	}
	if got := MonthKeyOf(""); got != "" {
		t.Errorf("expected empty month key, got %q", got)
	}
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}

	if len(first) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(first))
	}
	if first == second {
		t.Error("expected distinct state tokens")
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig loads the embedded example", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.Language != "pt-BR" {
			t.Errorf("unexpected language %q", config.API.Language)
		}
		if config.API.MaxGames != 100 {
			t.Errorf("unexpected max games %d", config.API.MaxGames)
		}
		if config.Server.Port != 8080 {
			t.Errorf("unexpected port %d", config.Server.Port)
		}
		if config.Database.Path == "" {
			t.Error("expected a database path")
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		t.Setenv("XBOX_CLIENT_ID", "env-client-id")
		t.Setenv("XBOX_CLIENT_SECRET", "env-client-secret")

		config := DefaultConfig()
		if config.Credentials.Xbox.ClientID != "env-client-id" {
			t.Errorf("expected env client id, got %q", config.Credentials.Xbox.ClientID)
		}
		if config.Credentials.Xbox.ClientSecret != "env-client-secret" {
			t.Errorf("expected env client secret, got %q", config.Credentials.Xbox.ClientSecret)
		}
	})

	t.Run("LoadConfig round trips through SaveConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Storage.OutputDir = "./elsewhere"
		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if loaded.Storage.OutputDir != "./elsewhere" {
			t.Errorf("unexpected output dir %q", loaded.Storage.OutputDir)
		}
	})

	t.Run("LoadConfig fails on a missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("CreateConfigFile refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile failed: %v", err)
		}
		err := CreateConfigFile(path)
		if err == nil {
			t.Fatal("expected error creating over an existing file")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("XboxConfig validation", func(t *testing.T) {
		valid := XboxConfig{ClientID: "id", ClientSecret: "secret"}
		if err := valid.Validate(); err != nil {
			t.Errorf("expected valid credentials, got %v", err)
		}

		if err := (XboxConfig{ClientID: "id"}).Validate(); err == nil {
			t.Error("expected error for missing secret")
		}
	})
}
