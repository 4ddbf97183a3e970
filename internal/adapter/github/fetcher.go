package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/logging"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// UserAgent 所有 GitHub 请求携带的固定标识
const UserAgent = "repo-grader"

// maxCommits GitHub 单页上限，也是我们统计提交数的上限
const maxCommits = 100

const notFoundMessage = "Repository not found or is private"

// Fetcher 实现了 port.RepoFetcher 接口
type Fetcher struct {
	client     *github.Client
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// FetcherOption 抓取器的可选配置
type FetcherOption func(*Fetcher)

// WithTimeout 单次 API 调用的超时时间，0 表示不设超时
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.timeout = d
		}
	}
}

// WithMaxRetries 临时性失败的重试次数，默认 0 (不重试)
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// NewFetcher 初始化 GitHub 客户端
// token 为空时匿名访问 (限制 60 次/小时)
func NewFetcher(token string, opts ...FetcherOption) *Fetcher {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	client.UserAgent = UserAgent

	f := &Fetcher{
		client:  client,
		timeout: 15 * time.Second,
		logger:  logging.WithComponent("github"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 依次读取元数据，然后并发读取语言、最近提交和顶层目录，最后推导信号
func (f *Fetcher) Fetch(ctx context.Context, owner, repo string) (*domain.RepositoryData, error) {
	// 1. 仓库元数据，后面的请求都依赖它
	var meta *github.Repository
	err := f.call(ctx, func(ctx context.Context) error {
		var apiErr error
		meta, _, apiErr = f.client.Repositories.Get(ctx, owner, repo)
		return classifyRepoError(apiErr)
	})
	if err != nil {
		return nil, err
	}

	// 2. 三个互相独立的请求并发执行，任何一个失败都会取消其余的
	var (
		languages map[string]int
		commits   []*github.RepositoryCommit
		contents  []*github.RepositoryContent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		languages, err = f.fetchLanguages(gctx, meta)
		return err
	})
	g.Go(func() error {
		var err error
		commits, err = f.fetchCommits(gctx, owner, repo)
		return err
	})
	g.Go(func() error {
		var err error
		contents, err = f.fetchContents(gctx, owner, repo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &domain.RepositoryData{
		Owner:       owner,
		Name:        repo,
		Description: meta.GetDescription(),
		UpdatedAt:   meta.GetUpdatedAt().Time,
		Languages:   languages,
		CommitDates: commitDates(commits),
		Contents:    contentItems(contents),
	}
	data.Signals = DeriveSignals(meta.GetLanguage(), meta.GetStargazersCount(), meta.GetForksCount(), len(data.CommitDates), data.Contents)

	f.logger.Debug("📥 仓库数据抓取完成",
		"repo", owner+"/"+repo,
		"commits", data.Signals.CommitCount,
		"files", data.Signals.FileCount,
		"languages", len(languages),
	)
	return data, nil
}

// fetchLanguages 按元数据里给出的 languages_url 读取语言分布
func (f *Fetcher) fetchLanguages(ctx context.Context, meta *github.Repository) (map[string]int, error) {
	languagesURL := meta.GetLanguagesURL()
	if languagesURL == "" {
		return map[string]int{}, nil
	}

	languages := map[string]int{}
	err := f.call(ctx, func(ctx context.Context) error {
		req, err := f.client.NewRequest(http.MethodGet, languagesURL, nil)
		if err != nil {
			return err
		}
		_, err = f.client.Do(ctx, req, &languages)
		return err
	})
	if err != nil {
		return nil, wrapNetwork("failed to fetch languages", err)
	}
	return languages, nil
}

// fetchCommits 读取最近 100 个提交，空仓库 (409) 视为没有提交
func (f *Fetcher) fetchCommits(ctx context.Context, owner, repo string) ([]*github.RepositoryCommit, error) {
	var commits []*github.RepositoryCommit
	err := f.call(ctx, func(ctx context.Context) error {
		var apiErr error
		commits, _, apiErr = f.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
			ListOptions: github.ListOptions{PerPage: maxCommits},
		})
		return apiErr
	})
	if statusOf(err) == http.StatusConflict {
		return nil, nil
	}
	if err != nil {
		return nil, wrapNetwork("failed to fetch commits", err)
	}
	return commits, nil
}

// fetchContents 读取根目录列表，空仓库 (404) 视为空目录
func (f *Fetcher) fetchContents(ctx context.Context, owner, repo string) ([]*github.RepositoryContent, error) {
	var contents []*github.RepositoryContent
	err := f.call(ctx, func(ctx context.Context) error {
		var apiErr error
		_, contents, _, apiErr = f.client.Repositories.GetContents(ctx, owner, repo, "", nil)
		return apiErr
	})
	if statusOf(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, wrapNetwork("failed to fetch contents", err)
	}
	return contents, nil
}

// call 给单次调用套上超时和 (可选的) 重试
func (f *Fetcher) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return common.Do(ctx, func() error {
		callCtx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}
		return fn(callCtx)
	},
		common.WithMaxRetries(f.maxRetries),
		common.WithInitialDelay(500*time.Millisecond),
		common.WithRetryIf(isTransient),
	)
}

// DeriveSignals 根据顶层目录条目名做大小写无关的匹配
func DeriveSignals(language string, stars, forks, commitCount int, contents []domain.ContentItem) domain.RepositorySignals {
	if language == "" {
		language = "Unknown"
	}

	s := domain.RepositorySignals{
		PrimaryLanguage: language,
		Stars:           stars,
		Forks:           forks,
		CommitCount:     commitCount,
	}

	for _, item := range contents {
		name := strings.ToLower(item.Name)

		if strings.HasPrefix(name, "readme") {
			s.HasReadme = true
		}
		if strings.HasPrefix(name, "license") {
			s.HasLicense = true
		}
		if name == ".gitignore" {
			s.HasGitignore = true
		}
		if strings.Contains(name, "test") || strings.Contains(name, "spec") || name == "__tests__" {
			s.HasTests = true
		}
		if name == ".github" || name == ".gitlab-ci.yml" {
			s.HasCICD = true
		}
		if item.Type == "file" {
			s.FileCount++
		}
	}
	return s
}

func commitDates(commits []*github.RepositoryCommit) []time.Time {
	dates := make([]time.Time, 0, len(commits))
	for _, c := range commits {
		dates = append(dates, c.GetCommit().GetAuthor().GetDate().Time)
	}
	return dates
}

func contentItems(contents []*github.RepositoryContent) []domain.ContentItem {
	items := make([]domain.ContentItem, 0, len(contents))
	for _, c := range contents {
		items = append(items, domain.ContentItem{
			Name: c.GetName(),
			Path: c.GetPath(),
			Type: c.GetType(),
		})
	}
	return items
}

// classifyRepoError 元数据请求被拒 (不存在/私有) 时映射为 REPOSITORY_NOT_FOUND
func classifyRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch statusOf(err) {
	case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized, http.StatusUnavailableForLegalReasons:
		return common.NewError(common.ErrCodeRepoNotFound, notFoundMessage)
	}
	return wrapNetwork("", err)
}

func wrapNetwork(message string, err error) error {
	if common.CodeOf(err) != "" {
		return err
	}
	return common.WrapError(common.ErrCodeNetwork, message, err)
}

// statusOf 取出 GitHub 错误响应里的状态码，限流错误不算
func statusOf(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// isTransient 只有网络层错误和 5xx 才值得重试
func isTransient(err error) bool {
	if common.IsCode(err, common.ErrCodeRepoNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}
	status := statusOf(err)
	return status == 0 || status >= http.StatusInternalServerError
}
