package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.General.LogLevel != LogAll {
		t.Errorf("log level = %q", cfg.General.LogLevel)
	}
	if cfg.Download.Timeout != 30*time.Second || cfg.Download.ConnectTimeout != 5*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.Download.Timeout, cfg.Download.ConnectTimeout)
	}
	if cfg.Download.Retries != 3 || cfg.Download.ParallelRequests != 5 {
		t.Errorf("retries = %d, parallel = %d", cfg.Download.Retries, cfg.Download.ParallelRequests)
	}
	if !cfg.Progress.Enable {
		t.Error("progress should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Download.ParallelRequests != 5 {
		t.Errorf("parallel = %d", cfg.Download.ParallelRequests)
	}
}

func TestParseCustom(t *testing.T) {
	data := `
general:
  log_level: errors-only
download:
  timeout: 1m
  connect_timeout: 2s
  retries: 1
  parallel_requests: 8
  requests_per_second: 2.5
  user_agent: test-agent
  headers:
    Authorization: Bearer token
progress_bar:
  enable: false
output:
  message_on_finish: Bye
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.General.LogLevel != LogErrorsOnly {
		t.Errorf("log level = %q", cfg.General.LogLevel)
	}
	if cfg.Download.Timeout != time.Minute || cfg.Download.ConnectTimeout != 2*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.Download.Timeout, cfg.Download.ConnectTimeout)
	}
	if cfg.Download.ParallelRequests != 8 || cfg.Download.RequestsPerSecond != 2.5 {
		t.Errorf("parallel = %d, rps = %v", cfg.Download.ParallelRequests, cfg.Download.RequestsPerSecond)
	}
	if cfg.Download.Headers["Authorization"] != "Bearer token" {
		t.Errorf("headers = %v", cfg.Download.Headers)
	}
	if cfg.Progress.Enable {
		t.Error("progress should be disabled")
	}
	// untouched keys keep their defaults
	if cfg.Output.MessageOnFinish != "Bye" || cfg.Output.MessageOnSuccess != "All files downloaded successfully!" {
		t.Errorf("output = %+v", cfg.Output)
	}

	hc := cfg.HTTPClientConfig()
	if !hc.HighThreadMode || hc.UserAgent != "test-agent" || hc.Timeout != time.Minute {
		t.Errorf("http client config = %+v", hc)
	}
	sc := cfg.SchedulerConfig()
	if sc.Workers != 8 || sc.RequestsPerSecond != 2.5 || sc.Retries != 1 {
		t.Errorf("scheduler config = %+v", sc)
	}
	fo := cfg.FlowOptions()
	if fo.ShowSuccess || !fo.ShowErrors {
		t.Errorf("flow options = %+v", fo)
	}
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "download:\n  paralel_requests: 3\n",
		"bad log level":    "general:\n  log_level: loud\n",
		"zero parallel":    "download:\n  parallel_requests: 0\n",
		"negative retries": "download:\n  retries: -1\n",
		"negative rate":    "download:\n  requests_per_second: -1\n",
		"bad duration":     "download:\n  timeout: soon\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", data)
			}
		})
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "dw.yaml", "download:\n  parallel_requests: 2\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != path || cfg.Download.ParallelRequests != 2 {
		t.Errorf("source = %q, parallel = %d", cfg.Source, cfg.Download.ParallelRequests)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
	bad := writeConfig(t, dir, "bad.yaml", "download: [")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("error should name the file, got %v", err)
	}
}

func TestLoadFollowsRedirect(t *testing.T) {
	dir := t.TempDir()
	target := writeConfig(t, dir, "real.yaml", "download:\n  parallel_requests: 7\n")
	first := writeConfig(t, dir, "first.yaml", "general:\n  config_path: "+target+"\n")
	cfg, err := Load(first)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != target || cfg.Download.ParallelRequests != 7 {
		t.Errorf("source = %q, parallel = %d", cfg.Source, cfg.Download.ParallelRequests)
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "env.yaml", "download:\n  retries: 9\n")
	t.Setenv(EnvConfigPath, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Download.Retries != 9 {
		t.Errorf("retries = %d, want 9", cfg.Download.Retries)
	}
	if paths := SearchPaths(); len(paths) == 0 || paths[0] != path {
		t.Errorf("env path should be searched first, got %v", paths)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default().Apply(Overrides{
		Silent:         true,
		Workers:        12,
		Timeout:        time.Minute,
		ConnectTimeout: time.Second,
		DownloadDir:    "/tmp/dl",
	})
	if cfg.General.LogLevel != LogSilent {
		t.Errorf("log level = %q", cfg.General.LogLevel)
	}
	if cfg.Download.ParallelRequests != 12 || cfg.Download.Timeout != time.Minute || cfg.Download.ConnectTimeout != time.Second {
		t.Errorf("download = %+v", cfg.Download)
	}
	if cfg.Download.DownloadDir != "/tmp/dl" {
		t.Errorf("download dir = %q", cfg.Download.DownloadDir)
	}

	untouched := Default().Apply(Overrides{})
	if untouched.Download.ParallelRequests != 5 || untouched.General.LogLevel != LogAll {
		t.Error("zero overrides must not change the config")
	}
}

func TestLogLevelVisibility(t *testing.T) {
	tests := []struct {
		level                            LogLevel
		summary, success, errs, progress bool
	}{
		{LogAll, true, true, true, true},
		{LogErrorsOnly, false, false, true, false},
		{LogProgressOnly, false, false, false, true},
		{LogSilent, false, false, false, false},
	}
	for _, tt := range tests {
		if tt.level.ShowSummary() != tt.summary || tt.level.ShowSuccess() != tt.success ||
			tt.level.ShowErrors() != tt.errs || tt.level.ShowProgress() != tt.progress {
			t.Errorf("%s: unexpected visibility", tt.level)
		}
	}
}
