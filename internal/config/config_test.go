package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 清空会影响结果的环境变量，并切到一个没有 .env 的目录
func cleanEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(strings.ToUpper(key), "")
		os.Unsetenv(strings.ToUpper(key))
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, "repo-grader", cfg.AppName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 0, cfg.GitHubMaxRetries)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 24*time.Hour, cfg.StoreTTL)
	assert.Equal(t, 10000, cfg.StoreMaxRecords)
	assert.Empty(t, cfg.LLMAPIKey())
}

func TestLoad_FromEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("GITHUB_TIMEOUT", "5s")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1/")
	t.Setenv("STORE_TTL", "30m")
	t.Setenv("STORE_MAX_RECORDS", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ghp_x", cfg.GitHubToken)
	assert.Equal(t, 5*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
	assert.Equal(t, "http://localhost:11434/v1/", cfg.OpenAIBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.StoreTTL)
	assert.Equal(t, 5, cfg.StoreMaxRecords)
}

func TestLoad_DotEnv(t *testing.T) {
	cleanEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("GEMINI_API_KEY=from-dotenv\nAPP_NAME=dotenv-app\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("APP_NAME")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLMAPIKey())
	assert.Equal(t, "dotenv-app", cfg.AppName)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "端口越界", key: "PORT", val: "70000"},
		{name: "未知日志级别", key: "LOG_LEVEL", val: "verbose"},
		{name: "未知日志格式", key: "LOG_FORMAT", val: "xml"},
		{name: "未知模型提供方", key: "LLM_PROVIDER", val: "ollama"},
		{name: "重试次数为负", key: "GITHUB_MAX_RETRIES", val: "-1"},
		{name: "超时为零", key: "LLM_TIMEOUT", val: "0s"},
		{name: "记录上限为负", key: "STORE_MAX_RECORDS", val: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.val)

			cfg, err := Load("")
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLLMAPIKey_None(t *testing.T) {
	cfg := &Config{LLMProvider: ProviderNone, GeminiAPIKey: "g", OpenAIAPIKey: "o"}
	assert.Empty(t, cfg.LLMAPIKey())
}
