package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/logging"
	"github-repo-grader/internal/port"

	"github.com/google/uuid"
)

// AnalysisService 串起 抓取 -> 分析 -> 组装 -> 保存
type AnalysisService struct {
	fetcher  port.RepoFetcher
	analyzer port.Analyzer
	store    port.AnalysisStore
	notifier port.Notifier
	logger   *slog.Logger

	nowFunc func() time.Time
	idFunc  func() string
}

// NewAnalysisService 创建新的分析服务
func NewAnalysisService(fetcher port.RepoFetcher, analyzer port.Analyzer, store port.AnalysisStore) *AnalysisService {
	return &AnalysisService{
		fetcher:  fetcher,
		analyzer: analyzer,
		store:    store,
		logger:   logging.WithComponent("service"),
		nowFunc:  time.Now,
		idFunc:   func() string { return uuid.NewString() },
	}
}

// Submit 分析一个仓库并保存结果，返回记录 id
// owner/repo 为空时不会发出任何外部请求
func (s *AnalysisService) Submit(ctx context.Context, owner, repo string) (string, error) {
	record, err := s.Run(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return "", common.WrapError(common.ErrCodeInternal, "failed to store analysis", err)
	}

	s.logger.Info("💾 分析结果已保存", "id", record.ID, "score", record.Score, "source", record.Source)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, record); err != nil {
			s.logger.Warn("⚠️ 推送分析结果失败", "id", record.ID, "error", err)
		}
	}
	return record.ID, nil
}

// SetNotifier 设置保存成功后的推送，nil 表示不推送
func (s *AnalysisService) SetNotifier(n port.Notifier) {
	s.notifier = n
}

// Run 执行完整的分析流程但不保存，命令行一次性分析也走这里
func (s *AnalysisService) Run(ctx context.Context, owner, repo string) (*domain.AnalysisRecord, error) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "Owner and repo are required")
	}

	s.logger.Info("🔍 开始分析仓库", "repo", owner+"/"+repo)

	data, err := s.fetcher.Fetch(ctx, owner, repo)
	if err != nil {
		s.logger.Error("❌ 抓取仓库数据失败", "repo", owner+"/"+repo, "error", err)
		return nil, err
	}

	outcome := s.analyzer.Analyze(ctx, owner, repo, data)
	return s.assemble(owner, repo, data, outcome), nil
}

// Lookup 按 id 取回记录
func (s *AnalysisService) Lookup(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "ID is required")
	}
	return s.store.Get(ctx, id)
}

func (s *AnalysisService) assemble(owner, repo string, data *domain.RepositoryData, outcome *domain.AnalysisOutcome) *domain.AnalysisRecord {
	sig := data.Signals
	return &domain.AnalysisRecord{
		ID:       owner + "-" + repo + "-" + s.idFunc(),
		RepoURL:  domain.RepoURL(owner, repo),
		Owner:    owner,
		Repo:     repo,
		Score:    outcome.OverallScore,
		Category: domain.CategoryFor(outcome.OverallScore),
		Summary:  outcome.Summary,
		Roadmap:  append([]string(nil), outcome.Roadmap...),
		Metrics:  outcome.Dimensions,
		RepoData: domain.RepoSnapshot{
			Language:     sig.PrimaryLanguage,
			Stars:        sig.Stars,
			Forks:        sig.Forks,
			LastUpdated:  data.UpdatedAt,
			TotalCommits: sig.CommitCount,
			FileCount:    sig.FileCount,
		},
		Source:    outcome.Source,
		Timestamp: s.nowFunc().UTC().Truncate(time.Millisecond),
	}
}
