package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV_VAR", "test_value")

	if got := GetEnv("TEST_GET_ENV_VAR", "default"); got != "test_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "test_value")
	}

	if got := GetEnv("NON_EXISTING_VAR_WORKLEDGER", "default_value"); got != "default_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "default_value")
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("WORKLEDGER_SERVER_ENVIRONMENT", "")

	tests := []struct {
		envValue string
		want     string
	}{
		{"development", "development"},
		{"STAGING", "staging"},
		{"Production", "production"},
		{"", "development"},
	}

	for _, tt := range tests {
		if tt.envValue != "" {
			os.Setenv("WORKLEDGER_SERVER_ENVIRONMENT", tt.envValue)
		} else {
			os.Unsetenv("WORKLEDGER_SERVER_ENVIRONMENT")
		}

		if got := GetEnvironment(); got != tt.want {
			t.Errorf("GetEnvironment() with %q = %v, want %v", tt.envValue, got, tt.want)
		}
	}
}

func TestIsProductionLike(t *testing.T) {
	tests := map[string]bool{
		"development": false,
		"test":        false,
		"staging":     true,
		"PRODUCTION":  true,
	}

	for env, want := range tests {
		if got := IsProductionLike(env); got != want {
			t.Errorf("IsProductionLike(%q) = %v, want %v", env, got, want)
		}
	}
}
