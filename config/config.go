package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config is the JSON document that wires every collaborator.
type Config struct {
	LLM        LLMConfig        `json:"llm"`
	ZeroGPT    ZeroGPTConfig    `json:"zerogpt"`
	DataForSEO DataForSEOConfig `json:"dataforseo"`
	PubMed     PubMedConfig     `json:"pubmed"`
	WordPress  WordPressConfig  `json:"wordpress"`
	Generation GenerationConfig `json:"generation"`
	Log        LogConfig        `json:"log"`

	Site        string `json:"site,omitempty"`
	ProfilesDir string `json:"profiles_dir,omitempty"`
	StateDir    string `json:"state_dir,omitempty"`
	ServerAddr  string `json:"server_addr,omitempty"`
}

// LLMConfig 生成模型配置（OpenAI 兼容接口，默认 OpenRouter）。
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	MaxTokens      int    `json:"max_tokens,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type ZeroGPTConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

type DataForSEOConfig struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Depth        int    `json:"depth,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}

type PubMedConfig struct {
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type WordPressConfig struct {
	URL         string `json:"url,omitempty"`
	Username    string `json:"username,omitempty"`
	AppPassword string `json:"app_password,omitempty"`
	Status      string `json:"status,omitempty"`
}

// GenerationConfig tunes the generate → humanize → detect loop.
type GenerationConfig struct {
	TargetScore     float64  `json:"target_score,omitempty"`
	MaxAttempts     int      `json:"max_attempts,omitempty"`
	RetryDelayMS    int      `json:"retry_delay_ms,omitempty"`
	CheckDetection  *bool    `json:"check_detection,omitempty"`
	TemperatureStep *float64 `json:"temperature_step,omitempty"`
}

type LogConfig struct {
	Mode  string `json:"mode,omitempty"`
	Level string `json:"level,omitempty"`
}

// LoadConfig reads JSON config from disk, applies defaults and environment overrides.
// An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CheckDetectionEnabled reports whether generated drafts go through the detector.
func (c Config) CheckDetectionEnabled() bool {
	if c.Generation.CheckDetection == nil {
		return true
	}
	return *c.Generation.CheckDetection
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.Generation.MaxAttempts < 1 {
		problems = append(problems, "generation.max_attempts must be >= 1")
	}
	if c.Generation.TargetScore <= 0 || c.Generation.TargetScore > 100 {
		problems = append(problems, "generation.target_score must be in (0, 100]")
	}
	if c.Generation.RetryDelayMS < 0 {
		problems = append(problems, "generation.retry_delay_ms must be >= 0")
	}
	switch strings.ToLower(c.Log.Mode) {
	case "dev", "development", "prod", "production":
	default:
		problems = append(problems, fmt.Sprintf("log.mode %q not supported", c.Log.Mode))
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.LLM.APIKey, "OPENROUTER_API_KEY")
	override(&c.ZeroGPT.APIKey, "ZEROGPT_API_KEY")
	override(&c.DataForSEO.Username, "DATAFORSEO_USERNAME")
	override(&c.DataForSEO.Password, "DATAFORSEO_PASSWORD")
	override(&c.PubMed.APIKey, "PUBMED_API_KEY")
	override(&c.WordPress.URL, "WORDPRESS_URL")
	override(&c.WordPress.Username, "WORDPRESS_USERNAME")
	override(&c.WordPress.AppPassword, "WORDPRESS_APP_PASSWORD")
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.ServerAddr = ":" + strings.TrimPrefix(port, ":")
	}
}
