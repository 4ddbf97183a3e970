package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全部运行参数，来自环境变量 (可选 .env 或配置文件)
type Config struct {
	Port      int    `mapstructure:"port"`
	AppName   string `mapstructure:"app_name"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	GitHubToken      string        `mapstructure:"github_token"`
	GitHubTimeout    time.Duration `mapstructure:"github_timeout"`
	GitHubMaxRetries int           `mapstructure:"github_max_retries"`

	LLMProvider   string        `mapstructure:"llm_provider"`
	LLMModel      string        `mapstructure:"llm_model"`
	LLMTimeout    time.Duration `mapstructure:"llm_timeout"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`

	StoreTTL        time.Duration `mapstructure:"store_ttl"`
	StoreMaxRecords int           `mapstructure:"store_max_records"`

	FrontendURL   string `mapstructure:"frontend_url"`
	FeishuWebhook string `mapstructure:"feishu_webhook"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

var defaults = map[string]any{
	"port":               3001,
	"app_name":           "repo-grader",
	"log_level":          "info",
	"log_format":         "text",
	"github_token":       "",
	"github_timeout":     15 * time.Second,
	"github_max_retries": 0,
	"llm_provider":       ProviderGemini,
	"llm_model":          "",
	"llm_timeout":        60 * time.Second,
	"gemini_api_key":     "",
	"openai_api_key":     "",
	"openai_base_url":    "",
	"store_ttl":          24 * time.Hour,
	"store_max_records":  10000,
	"frontend_url":       "",
	"feishu_webhook":     "",
}

// Load 读取 .env (不存在时忽略)、可选的配置文件和环境变量，环境变量优先
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("invalid LOG_LEVEL %q (want debug, info, warn or error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", c.LogFormat)
	}
	if c.GitHubTimeout <= 0 {
		return fmt.Errorf("GITHUB_TIMEOUT must be positive")
	}
	if c.GitHubMaxRetries < 0 {
		return fmt.Errorf("GITHUB_MAX_RETRIES must not be negative")
	}
	if !slices.Contains([]string{ProviderGemini, ProviderOpenAI, ProviderNone}, c.LLMProvider) {
		return fmt.Errorf("invalid LLM_PROVIDER %q (want gemini, openai or none)", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.StoreTTL < 0 {
		return fmt.Errorf("STORE_TTL must not be negative")
	}
	if c.StoreMaxRecords < 0 {
		return fmt.Errorf("STORE_MAX_RECORDS must not be negative")
	}
	return nil
}

// LLMAPIKey 当前 provider 对应的 key，provider 为 none 时为空
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
