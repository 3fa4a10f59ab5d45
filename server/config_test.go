package server_test

import (
	"strings"
	"testing"
	"time"

	"github.com/krisalay/flightcache/server"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := server.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.BindAddr = ""
	cfg.DefaultLanguage = "Not A Language"
	cfg.CacheTTL = 0
	cfg.Shards = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	for _, want := range []string{"bind address", "default language", "cache ttl", "shard count"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error does not mention %q: %v", want, err)
		}
	}
}

func TestValidateRejectsNegativeDurations(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.SweepInterval = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative sweep interval")
	}

	cfg = server.DefaultConfig()
	cfg.RefreshWindow = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative refresh window")
	}

	cfg = server.DefaultConfig()
	cfg.UpstreamRPS = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative rate limit")
	}
}

func TestValidLanguage(t *testing.T) {
	valid := []string{"en", "de", "simple", "zh-yue", "pt-br"}
	for _, lang := range valid {
		if !server.ValidLanguage(lang) {
			t.Errorf("ValidLanguage(%q) = false, want true", lang)
		}
	}

	invalid := []string{"", "E", "EN", "en us", "en_US", "a", "verylonglanguagecode"}
	for _, lang := range invalid {
		if server.ValidLanguage(lang) {
			t.Errorf("ValidLanguage(%q) = true, want false", lang)
		}
	}
}
