// Package config loads the daemon configuration from
// ~/.deskvox/config.yaml (overridable via DESKVOX_CONFIG).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Language string            `yaml:"language"`
	LLM      LLM               `yaml:"llm"`
	Refiner  Refiner           `yaml:"refiner"`
	Memory   Memory            `yaml:"memory"`
	Browser  Browser           `yaml:"browser"`
	Calendar Calendar          `yaml:"calendar"`
	Aliases  map[string]string `yaml:"aliases,omitempty"`
	History  History           `yaml:"history"`
	STT      STT               `yaml:"stt"`
	TTS      TTS               `yaml:"tts"`
	IPC      IPC               `yaml:"ipc"`
	Bus      Bus               `yaml:"bus"`
	Log      Log               `yaml:"log"`
}

type LLM struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Proxy     string        `yaml:"proxy"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Refiner struct {
	Enabled bool `yaml:"enabled"`
}

type Memory struct {
	Capacity    int           `yaml:"capacity"`
	TabCacheTTL time.Duration `yaml:"tab_cache_ttl"`
}

type Browser struct {
	DebugPorts []int `yaml:"debug_ports"`
}

type Calendar struct {
	Dir string `yaml:"dir"`
}

type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type STT struct {
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
}

type TTS struct {
	Enabled bool `yaml:"enabled"`
}

type IPC struct {
	Socket string `yaml:"socket"`
}

type Bus struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Log struct {
	Level string `yaml:"level"`
}

var providerDefaults = map[string]LLM{
	"openai": {Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
	"gemini": {Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY"},
}

var LogLevels = []string{"debug", "info", "warn", "error"}

func Default() Config {
	return Config{
		Language: "ko",
		LLM: LLM{
			Provider: "openai",
			Timeout:  60 * time.Second,
		},
		Refiner:  Refiner{Enabled: true},
		Memory:   Memory{Capacity: 10, TabCacheTTL: 30 * time.Minute},
		Browser:  Browser{DebugPorts: []int{9222, 9223}},
		Calendar: Calendar{Dir: os.TempDir()},
		History:  History{Path: filepath.Join(homeDir(), ".deskvox", "history.db")},
		STT: STT{
			Model:    "third_party/whisper.cpp/models/ggml-medium.bin",
			Language: "auto",
		},
		TTS: TTS{Enabled: true},
		IPC: IPC{Socket: "/tmp/deskvox.sock"},
		Bus: Bus{Name: "deskvox"},
		Log: Log{Level: "info"},
	}
}

// Path returns the config file location: override, then DESKVOX_CONFIG,
// then ~/.deskvox/config.yaml.
func Path(override string) string {
	if override != "" {
		return expandPath(override)
	}
	if custom := os.Getenv("DESKVOX_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(homeDir(), ".deskvox", "config.yaml")
}

// Load reads the file at Path(override). A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(override string) (Config, error) {
	cfg := Default()
	path := Path(override)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	hydrate(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DESKVOX_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("DESKVOX_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DESKVOX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func hydrate(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if d, ok := providerDefaults[cfg.LLM.Provider]; ok {
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = d.Model
		}
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = d.APIKeyEnv
		}
	}
	if cfg.Language == "" {
		cfg.Language = "ko"
	}
	cfg.Calendar.Dir = expandPath(cfg.Calendar.Dir)
	cfg.History.Path = expandPath(cfg.History.Path)
	cfg.STT.Model = expandPath(cfg.STT.Model)
}

func (c Config) Validate() error {
	var problems []string
	if _, ok := providerDefaults[c.LLM.Provider]; !ok {
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.Memory.Capacity <= 0 {
		problems = append(problems, "memory.capacity must be positive")
	}
	if c.Memory.TabCacheTTL <= 0 {
		problems = append(problems, "memory.tab_cache_ttl must be positive")
	}
	if c.LLM.Timeout < 0 {
		problems = append(problems, "llm.timeout must not be negative")
	}
	if !contains(LogLevels, c.Log.Level) {
		problems = append(problems, fmt.Sprintf("unknown log.level %q", c.Log.Level))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
