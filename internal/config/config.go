// Package config holds the runtime settings for the formprompt binaries. A
// YAML file is layered over DefaultConfig, then environment variables, then
// command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formprompt/pkg/merge"
)

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvAddr      = "FORMPROMPT_ADDR"
)

// Proposer backends.
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendRemote = "remote"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Proposer ProposerConfig `yaml:"proposer"`
	Merge    MergeConfig    `yaml:"merge"`
	Store    StoreConfig    `yaml:"store"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Sessions SessionsConfig `yaml:"sessions"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// ProposerConfig selects and tunes the language-model backend.
type ProposerConfig struct {
	Backend     string       `yaml:"backend"`
	Language    string       `yaml:"language"`
	Temperature float32      `yaml:"temperature"`
	MaxTokens   int          `yaml:"maxTokens"`
	OpenAI      OpenAIConfig `yaml:"openai"`
	Gemini      GeminiConfig `yaml:"gemini"`
	Remote      RemoteConfig `yaml:"remote"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type RemoteConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MergeConfig struct {
	Policy string `yaml:"policy"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CatalogConfig points at base forms. Dir loads YAML/JSON files from disk, URL
// fetches from a running server; with neither the embedded catalog is used.
type CatalogConfig struct {
	Dir string `yaml:"dir"`
	URL string `yaml:"url"`
}

type SessionsConfig struct {
	MaxIdle         time.Duration `yaml:"maxIdle"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// DefaultConfig returns the settings used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Proposer: ProposerConfig{
			Backend:     BackendOpenAI,
			Language:    "French",
			Temperature: 0.7,
			MaxTokens:   2000,
			OpenAI:      OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini:      GeminiConfig{Model: "gemini-2.0-flash"},
			Remote:      RemoteConfig{Timeout: 60 * time.Second},
		},
		Merge: MergeConfig{Policy: string(merge.DefaultPolicy)},
		Store: StoreConfig{Driver: StoreMemory},
		Sessions: SessionsConfig{
			MaxIdle:         24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}

// Load reads path (when non-empty) over the defaults and applies the process
// environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.Decode(data); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func (c *Config) Decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv copies non-empty environment values into cfg.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if v, ok := lookup(EnvOpenAIKey); ok && strings.TrimSpace(v) != "" {
		c.Proposer.OpenAI.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvGeminiKey); ok && strings.TrimSpace(v) != "" {
		c.Proposer.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAddr); ok && strings.TrimSpace(v) != "" {
		c.Server.Addr = strings.TrimSpace(v)
	}
}

// MergePolicy returns the parsed merge policy.
func (c Config) MergePolicy() merge.Policy {
	policy, err := merge.ParsePolicy(c.Merge.Policy)
	if err != nil {
		return merge.DefaultPolicy
	}
	return policy
}

// Validate checks enums and ranges. API keys are not required here so that
// commands which never call the model can run without them.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	switch c.Proposer.Backend {
	case BackendOpenAI, BackendGemini:
	case BackendRemote:
		if strings.TrimSpace(c.Proposer.Remote.URL) == "" {
			problems = append(problems, "proposer.remote.url is required for the remote backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("proposer.backend %q is not one of openai, gemini, remote", c.Proposer.Backend))
	}
	if c.Proposer.Temperature < 0 || c.Proposer.Temperature > 2 {
		problems = append(problems, "proposer.temperature must be within [0, 2]")
	}
	if c.Proposer.MaxTokens <= 0 {
		problems = append(problems, "proposer.maxTokens must be positive")
	}
	if _, err := merge.ParsePolicy(c.Merge.Policy); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			problems = append(problems, "store.dsn is required for the sqlite driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of memory, sqlite", c.Store.Driver))
	}
	if c.Catalog.Dir != "" && c.Catalog.URL != "" {
		problems = append(problems, "catalog.dir and catalog.url are mutually exclusive")
	}
	if c.Sessions.MaxIdle <= 0 {
		problems = append(problems, "sessions.maxIdle must be positive")
	}
	if c.Sessions.CleanupInterval <= 0 {
		problems = append(problems, "sessions.cleanupInterval must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
