package config

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := GetEnvString("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("got %q", got)
	}
	if got := GetEnvString("TEST_STRING_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not-a-number")

	if got := GetEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("got %d", got)
	}
	if got := GetEnvInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("invalid value should fall back, got %d", got)
	}
	if got := GetEnvInt("TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := GetEnvFloat("TEST_FLOAT", 1.0); got != 0.25 {
		t.Errorf("got %v", got)
	}
	if got := GetEnvFloat("TEST_FLOAT_UNSET", 1.0); got != 1.0 {
		t.Errorf("got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "yep")

	if !GetEnvBool("TEST_BOOL", false) {
		t.Error("expected true")
	}
	if !GetEnvBool("TEST_BOOL_BAD", true) {
		t.Error("invalid value should fall back")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "30s")
	t.Setenv("TEST_DURATION_BAD", "soon")

	if got := GetEnvDuration("TEST_DURATION", time.Minute); got != 30*time.Second {
		t.Errorf("got %v", got)
	}
	if got := GetEnvDuration("TEST_DURATION_BAD", time.Minute); got != time.Minute {
		t.Errorf("invalid value should fall back, got %v", got)
	}
}
