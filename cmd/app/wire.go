package main

import (
	"context"
	"log/slog"

	"github-repo-grader/internal/adapter/analyzer"
	"github-repo-grader/internal/adapter/feishu"
	"github-repo-grader/internal/adapter/gemini"
	"github-repo-grader/internal/adapter/github"
	"github-repo-grader/internal/adapter/openai"
	"github-repo-grader/internal/adapter/repository"
	"github-repo-grader/internal/config"
	"github-repo-grader/internal/port"
	"github-repo-grader/internal/service"
)

// newAnalysisService 按配置组装 抓取器 / 模型 / 分析器 / 存储
func newAnalysisService(ctx context.Context, cfg *config.Config) (*service.AnalysisService, func(), error) {
	fetcher := github.NewFetcher(cfg.GitHubToken,
		github.WithTimeout(cfg.GitHubTimeout),
		github.WithMaxRetries(cfg.GitHubMaxRetries),
	)

	generator, closeGenerator, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	repoAnalyzer := analyzer.NewRepoAnalyzer(generator)
	repoAnalyzer.SetTimeout(cfg.LLMTimeout)

	store := repository.NewMemoryRepo(
		repository.WithTTL(cfg.StoreTTL),
		repository.WithMaxRecords(cfg.StoreMaxRecords),
	)

	cleanup := func() {
		if err := closeGenerator(); err != nil {
			slog.Warn("⚠️ 关闭模型客户端失败", "error", err)
		}
	}
	svc := service.NewAnalysisService(fetcher, repoAnalyzer, store)
	if cfg.FeishuWebhook != "" {
		svc.SetNotifier(feishu.NewNotifier(cfg.FeishuWebhook))
	}
	return svc, cleanup, nil
}

// newGenerator 没有可用的 key 时退回 Disabled，所有分析走规则打分
func newGenerator(ctx context.Context, cfg *config.Config) (port.Generator, func() error, error) {
	noop := func() error { return nil }

	if cfg.LLMAPIKey() == "" {
		if cfg.LLMProvider != config.ProviderNone {
			slog.Warn("⚠️ 未配置模型 API Key，将使用规则打分", "provider", cfg.LLMProvider)
		}
		return analyzer.Disabled(), noop, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := gemini.NewGeminiGenerator(ctx, cfg.LLMAPIKey(), cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case config.ProviderOpenAI:
		g, err := openai.NewOpenAIGenerator(cfg.LLMAPIKey(), cfg.OpenAIBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return g, noop, nil
	default:
		return analyzer.Disabled(), noop, nil
	}
}
