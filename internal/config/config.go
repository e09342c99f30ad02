// Package config loads dw settings from a YAML file, falling back to
// defaults, and lets command line flags override them.
//
// The file is looked up in this order, first match wins:
//
//  1. the --config flag
//  2. $DW_CONFIG_PATH
//  3. <user config dir>/dw.yaml and <user config dir>/dw/config.yaml
//  4. ~/.config/dw.yaml, ~/.config/dw/config.yaml, ~/.dw.yaml
//  5. /etc/dw.yaml
//
// Unknown keys are rejected so typos surface instead of being ignored.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tanq16/dw/internal/reporter"
	"github.com/tanq16/dw/internal/scheduler"
	"github.com/tanq16/dw/internal/utils"
)

const EnvConfigPath = "DW_CONFIG_PATH"

type LogLevel string

const (
	LogAll          LogLevel = "all"
	LogErrorsOnly   LogLevel = "errors-only"
	LogProgressOnly LogLevel = "progress-only"
	LogSilent       LogLevel = "silent"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogAll, LogErrorsOnly, LogProgressOnly, LogSilent:
		return true
	}
	return false
}

func (l LogLevel) ShowSummary() bool { return l == LogAll }
func (l LogLevel) ShowSuccess() bool { return l == LogAll }
func (l LogLevel) ShowErrors() bool { return l == LogAll || l == LogErrorsOnly }
func (l LogLevel) ShowProgress() bool { return l == LogAll || l == LogProgressOnly }

type GeneralConfig struct {
	LogLevel   LogLevel `yaml:"log_level"`
	ConfigPath string   `yaml:"config_path"`
}

type DownloadConfig struct {
	Timeout           time.Duration     `yaml:"timeout"`
	ConnectTimeout    time.Duration     `yaml:"connect_timeout"`
	Retries           int               `yaml:"retries"`
	ParallelRequests  int               `yaml:"parallel_requests"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	DownloadDir       string            `yaml:"download_dir"`
	UserAgent         string            `yaml:"user_agent"`
	Headers           map[string]string `yaml:"headers"`
}

type ProgressConfig struct {
	Enable               bool `yaml:"enable"`
	MaxDisplayedFilename int  `yaml:"max_displayed_filename"`
}

type OutputConfig struct {
	MessageOnStart      string `yaml:"message_on_start"`
	MessageOnFinish     string `yaml:"message_on_finish"`
	MessageOnSuccess    string `yaml:"message_on_success"`
	MessageOnErrors     string `yaml:"message_on_errors"`
	MessageOnResponse   string `yaml:"message_on_response"`
	MessageOnFileExists string `yaml:"message_on_file_exists"`
}

type AppConfig struct {
	General  GeneralConfig  `yaml:"general"`
	Download DownloadConfig `yaml:"download"`
	Progress ProgressConfig `yaml:"progress_bar"`
	Output   OutputConfig   `yaml:"output"`
	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

func Default() *AppConfig {
	return &AppConfig{
		General: GeneralConfig{LogLevel: LogAll},
		Download: DownloadConfig{
			Timeout:          utils.DefaultTimeout,
			ConnectTimeout:   utils.DefaultConnectTimeout,
			Retries:          utils.DefaultRetries,
			ParallelRequests: utils.DefaultWorkers,
		},
		Progress: ProgressConfig{
			Enable:               true,
			MaxDisplayedFilename: 20,
		},
		Output: OutputConfig{
			MessageOnFinish:  "Finish!",
			MessageOnSuccess: "All files downloaded successfully!",
		},
	}
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromPath(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Load reads the config at path, or the first one found in the search
// locations, or returns defaults. A config may point at another one through
// general.config_path; that redirect is followed once.
func Load(path string) (*AppConfig, error) {
	log := utils.GetLogger("config")
	if path == "" {
		found, ok := FindConfig()
		if !ok {
			log.Debug().Msg("No config file found, using defaults")
			return Default(), nil
		}
		path = found
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if next := cfg.General.ConfigPath; next != "" && next != path {
		log.Debug().Str("from", path).Str("to", next).Msg("Following config redirect")
		cfg, err = LoadFromPath(next)
		if err != nil {
			return nil, err
		}
	}
	log.Debug().Str("path", cfg.Source).Msg("Config loaded")
	return cfg, nil
}

func FindConfig() (string, bool) {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func SearchPaths() []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	add(os.Getenv(EnvConfigPath))
	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, "dw.yaml"))
		add(filepath.Join(dir, "dw", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		add(filepath.Join(home, ".config", "dw.yaml"))
		add(filepath.Join(home, ".config", "dw", "config.yaml"))
		add(filepath.Join(home, ".dw.yaml"))
	}
	if runtime.GOOS != "windows" {
		add("/etc/dw.yaml")
	}
	return paths
}

func (c *AppConfig) Validate() error {
	if !c.General.LogLevel.Valid() {
		return fmt.Errorf("invalid log_level %q", c.General.LogLevel)
	}
	if c.Download.ParallelRequests <= 0 {
		return fmt.Errorf("parallel_requests must be positive, got %d", c.Download.ParallelRequests)
	}
	if c.Download.Timeout < 0 || c.Download.ConnectTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Download.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Download.Retries)
	}
	if c.Download.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", c.Download.RequestsPerSecond)
	}
	return nil
}

// Overrides are values set on the command line. Zero values leave the
// config untouched.
type Overrides struct {
	Silent         bool
	Workers        int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	DownloadDir    string
}

func (c *AppConfig) Apply(o Overrides) *AppConfig {
	if o.Silent {
		c.General.LogLevel = LogSilent
	}
	if o.Workers > 0 {
		c.Download.ParallelRequests = o.Workers
	}
	if o.Timeout > 0 {
		c.Download.Timeout = o.Timeout
	}
	if o.ConnectTimeout > 0 {
		c.Download.ConnectTimeout = o.ConnectTimeout
	}
	if o.DownloadDir != "" {
		c.Download.DownloadDir = o.DownloadDir
	}
	return c
}

func (c *AppConfig) HTTPClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		Timeout:        c.Download.Timeout,
		ConnectTimeout: c.Download.ConnectTimeout,
		UserAgent:      c.Download.UserAgent,
		Headers:        c.Download.Headers,
		HighThreadMode: c.Download.ParallelRequests > 5,
	}
}

func (c *AppConfig) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Workers:           c.Download.ParallelRequests,
		RequestsPerSecond: c.Download.RequestsPerSecond,
		Retries:           c.Download.Retries,
	}
}

func (c *AppConfig) FlowOptions() reporter.FlowOptions {
	return reporter.FlowOptions{
		MessageOnStart:   c.Output.MessageOnStart,
		MessageOnFinish:  c.Output.MessageOnFinish,
		MessageOnSuccess: c.Output.MessageOnSuccess,
		MessageOnErrors:  c.Output.MessageOnErrors,
		ShowSuccess:      c.General.LogLevel.ShowSuccess(),
		ShowErrors:       c.General.LogLevel.ShowErrors(),
	}
}

func (c *AppConfig) ConsoleOptions() reporter.ConsoleOptions {
	return reporter.ConsoleOptions{
		MessageOnResponse:   c.Output.MessageOnResponse,
		MessageOnFileExists: c.Output.MessageOnFileExists,
	}
}
