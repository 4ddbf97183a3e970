package port

import (
	"context"

	"github-repo-grader/internal/domain"
)

// RepoFetcher (侦察兵): 负责从 GitHub 拉取仓库元数据、语言、提交和顶层目录
type RepoFetcher interface {
	Fetch(ctx context.Context, owner, repo string) (*domain.RepositoryData, error)
}

// Generator (模型): 把一段 prompt 交给生成式模型，返回原始文本
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer (鉴定师): 基于抓到的信号给出评分，失败时自己兜底，不向上抛错
type Analyzer interface {
	Analyze(ctx context.Context, owner, repo string, data *domain.RepositoryData) *domain.AnalysisOutcome
}

// AnalysisStore (仓库管理员): 进程内保存分析记录
type AnalysisStore interface {
	// Save 只插入，不覆盖已有 id
	Save(ctx context.Context, record *domain.AnalysisRecord) error

	// Get 找不到时返回 NOT_FOUND 错误
	Get(ctx context.Context, id string) (*domain.AnalysisRecord, error)
}

// Notifier (信使): 分析完成后推送结果，失败不影响提交
type Notifier interface {
	Notify(ctx context.Context, record *domain.AnalysisRecord) error
}

// GeneratorFunc 让普通函数满足 Generator 接口
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
