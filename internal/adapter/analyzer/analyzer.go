package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/logging"
	"github-repo-grader/internal/port"
)

// RepoAnalyzer 实现了 port.Analyzer 接口
// 先问模型，模型失败或输出不合格时退回规则打分，模型调用从不重试
type RepoAnalyzer struct {
	generator port.Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRepoAnalyzer 创建新的分析器实例
func NewRepoAnalyzer(generator port.Generator) *RepoAnalyzer {
	return &RepoAnalyzer{
		generator: generator,
		timeout:   60 * time.Second,
		logger:    logging.WithComponent("analyzer"),
	}
}

// SetTimeout 设置单次模型调用的超时时间，0 表示不限制
func (a *RepoAnalyzer) SetTimeout(d time.Duration) {
	if d >= 0 {
		a.timeout = d
	}
}

// Analyze 返回的结果永不为 nil
func (a *RepoAnalyzer) Analyze(ctx context.Context, owner, repo string, data *domain.RepositoryData) *domain.AnalysisOutcome {
	outcome, err := a.analyzeWithModel(ctx, owner, repo, data)
	if err != nil {
		a.logger.Warn("⚠️ AI 分析失败，使用规则打分兜底",
			"repo", owner+"/"+repo,
			"code", common.CodeOf(err),
			"error", err,
		)
		return Fallback(data.Signals)
	}

	a.logger.Info("✅ AI 分析完成", "repo", owner+"/"+repo, "score", outcome.OverallScore)
	return outcome
}

func (a *RepoAnalyzer) analyzeWithModel(ctx context.Context, owner, repo string, data *domain.RepositoryData) (*domain.AnalysisOutcome, error) {
	if a.generator == nil {
		return nil, ErrGeneratorDisabled
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.generator.Generate(callCtx, BuildPrompt(owner, repo, data))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	return ParseOutcome(text)
}

// ErrGeneratorDisabled 未配置任何模型时返回，分析会直接走兜底
var ErrGeneratorDisabled = common.NewError(common.ErrCodeAIProcessing, "no language model configured")

// Disabled 一个永远失败的 Generator，未配置 API Key 时使用
func Disabled() port.Generator {
	return port.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", ErrGeneratorDisabled
	})
}
