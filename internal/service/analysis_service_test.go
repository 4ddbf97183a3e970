package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, owner, repo string) (*domain.RepositoryData, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepositoryData), args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, owner, repo string, data *domain.RepositoryData) *domain.AnalysisOutcome {
	args := m.Called(ctx, owner, repo, data)
	return args.Get(0).(*domain.AnalysisOutcome)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRecord), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("CST", 8*3600))

func newTestService() (*AnalysisService, *MockFetcher, *MockAnalyzer, *MockStore) {
	fetcher := new(MockFetcher)
	analyzer := new(MockAnalyzer)
	store := new(MockStore)

	svc := NewAnalysisService(fetcher, analyzer, store)
	svc.nowFunc = func() time.Time { return fixedNow }
	svc.idFunc = func() string { return "0000" }
	return svc, fetcher, analyzer, store
}

func sampleData() *domain.RepositoryData {
	return &domain.RepositoryData{
		Owner:     "octocat",
		Name:      "hello",
		UpdatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Signals: domain.RepositorySignals{
			PrimaryLanguage: "Go",
			Stars:           42,
			Forks:           7,
			CommitCount:     100,
			FileCount:       12,
			HasReadme:       true,
		},
	}
}

func sampleOutcome(score int) *domain.AnalysisOutcome {
	return &domain.AnalysisOutcome{
		OverallScore: score,
		Dimensions:   domain.Dimensions{CodeQuality: 90, Documentation: 95, Structure: 88, GitPractices: 91, TestCoverage: 85},
		Summary:      "Solid.",
		Roadmap:      []string{"Add benchmarks"},
		Source:       domain.SourceAI,
	}
}

func TestAnalysisService_Submit(t *testing.T) {
	svc, fetcher, analyzer, store := newTestService()
	ctx := context.Background()
	data := sampleData()

	fetcher.On("Fetch", ctx, "octocat", "hello").Return(data, nil).Once()
	analyzer.On("Analyze", ctx, "octocat", "hello", data).Return(sampleOutcome(92)).Once()

	var saved *domain.AnalysisRecord
	store.On("Save", ctx, mock.AnythingOfType("*domain.AnalysisRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.AnalysisRecord) }).
		Return(nil).Once()

	id, err := svc.Submit(ctx, " octocat ", "hello")
	require.NoError(t, err)
	assert.Equal(t, "octocat-hello-0000", id)

	require.NotNil(t, saved)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "https://github.com/octocat/hello", saved.RepoURL)
	assert.Equal(t, 92, saved.Score)
	assert.Equal(t, domain.CategoryAdvanced, saved.Category)
	assert.Equal(t, 95, saved.Metrics.Documentation)
	assert.Equal(t, domain.SourceAI, saved.Source)
	assert.Equal(t, domain.RepoSnapshot{
		Language:     "Go",
		Stars:        42,
		Forks:        7,
		LastUpdated:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalCommits: 100,
		FileCount:    12,
	}, saved.RepoData)
	assert.Equal(t, time.Date(2024, 5, 5, 23, 8, 9, 123000000, time.UTC), saved.Timestamp)

	fetcher.AssertExpectations(t)
	analyzer.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestAnalysisService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		owner string
		repo  string
	}{
		{name: "缺少 owner", owner: "", repo: "hello"},
		{name: "缺少 repo", owner: "octocat", repo: ""},
		{name: "只有空白", owner: "  ", repo: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fetcher, analyzer, store := newTestService()

			id, err := svc.Submit(context.Background(), tt.owner, tt.repo)
			assert.Empty(t, id)
			assert.True(t, common.IsCode(err, common.ErrCodeInvalidInput))
			assert.Equal(t, "Owner and repo are required", err.Error())

			fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
			analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisService_Submit_FetchErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{
			name: "仓库不存在",
			err:  common.NewError(common.ErrCodeRepoNotFound, "Repository not found or is private"),
			code: common.ErrCodeRepoNotFound,
		},
		{
			name: "网络错误",
			err:  common.WrapError(common.ErrCodeNetwork, "failed to fetch commits", errors.New("connection reset")),
			code: common.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fetcher, analyzer, store := newTestService()
			fetcher.On("Fetch", mock.Anything, "octocat", "hello").Return(nil, tt.err).Once()

			id, err := svc.Submit(context.Background(), "octocat", "hello")
			assert.Empty(t, id)
			assert.Equal(t, tt.code, common.CodeOf(err))

			// 抓取失败时既不分析也不保存
			analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisService_Submit_FallbackOutcome(t *testing.T) {
	svc, fetcher, analyzer, store := newTestService()
	data := sampleData()

	outcome := sampleOutcome(55)
	outcome.Source = domain.SourceFallback

	fetcher.On("Fetch", mock.Anything, "octocat", "hello").Return(data, nil)
	analyzer.On("Analyze", mock.Anything, "octocat", "hello", data).Return(outcome)
	store.On("Save", mock.Anything, mock.MatchedBy(func(r *domain.AnalysisRecord) bool {
		return r.Score == 55 && r.Category == domain.CategoryBeginner && r.Source == domain.SourceFallback
	})).Return(nil).Once()

	_, err := svc.Submit(context.Background(), "octocat", "hello")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAnalysisService_Submit_StoreError(t *testing.T) {
	svc, fetcher, analyzer, store := newTestService()
	data := sampleData()

	fetcher.On("Fetch", mock.Anything, "octocat", "hello").Return(data, nil)
	analyzer.On("Analyze", mock.Anything, "octocat", "hello", data).Return(sampleOutcome(70))
	store.On("Save", mock.Anything, mock.Anything).
		Return(common.NewError(common.ErrCodeConflict, "analysis octocat-hello-0000 already exists"))

	id, err := svc.Submit(context.Background(), "octocat", "hello")
	assert.Empty(t, id)
	assert.True(t, common.IsCode(err, common.ErrCodeInternal))
}

func TestAnalysisService_Submit_UniqueIDs(t *testing.T) {
	fetcher := new(MockFetcher)
	analyzer := new(MockAnalyzer)
	store := new(MockStore)
	svc := NewAnalysisService(fetcher, analyzer, store)

	data := sampleData()
	fetcher.On("Fetch", mock.Anything, "octocat", "hello").Return(data, nil)
	analyzer.On("Analyze", mock.Anything, "octocat", "hello", data).Return(sampleOutcome(70))
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	first, err := svc.Submit(context.Background(), "octocat", "hello")
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), "octocat", "hello")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^octocat-hello-[0-9a-f-]{36}$`, first)
}

func TestAnalysisService_Lookup(t *testing.T) {
	svc, _, _, store := newTestService()
	ctx := context.Background()

	record := &domain.AnalysisRecord{ID: "octocat-hello-0000", Score: 80}
	store.On("Get", ctx, "octocat-hello-0000").Return(record, nil).Once()
	store.On("Get", ctx, "missing").Return(nil, common.NewError(common.ErrCodeNotFound, "Analysis not found")).Once()

	got, err := svc.Lookup(ctx, "octocat-hello-0000")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = svc.Lookup(ctx, "missing")
	assert.True(t, common.IsCode(err, common.ErrCodeNotFound))

	_, err = svc.Lookup(ctx, "")
	assert.True(t, common.IsCode(err, common.ErrCodeInvalidInput))
	assert.Equal(t, "ID is required", err.Error())

	store.AssertExpectations(t)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, record *domain.AnalysisRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func TestAnalysisService_Submit_Notifies(t *testing.T) {
	tests := []struct {
		name      string
		notifyErr error
	}{
		{name: "推送成功"},
		{name: "推送失败不影响提交", notifyErr: errors.New("webhook down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fetcher, analyzer, store := newTestService()
			notifier := new(MockNotifier)
			svc.SetNotifier(notifier)

			data := sampleData()
			fetcher.On("Fetch", mock.Anything, "octocat", "hello").Return(data, nil)
			analyzer.On("Analyze", mock.Anything, "octocat", "hello", data).Return(sampleOutcome(92))
			store.On("Save", mock.Anything, mock.Anything).Return(nil)
			notifier.On("Notify", mock.Anything, mock.MatchedBy(func(r *domain.AnalysisRecord) bool {
				return r.ID == "octocat-hello-0000"
			})).Return(tt.notifyErr).Once()

			id, err := svc.Submit(context.Background(), "octocat", "hello")
			require.NoError(t, err)
			assert.Equal(t, "octocat-hello-0000", id)
			notifier.AssertExpectations(t)
		})
	}
}

func TestAnalysisService_Submit_NoNotifyOnFailure(t *testing.T) {
	svc, fetcher, _, _ := newTestService()
	notifier := new(MockNotifier)
	svc.SetNotifier(notifier)

	fetcher.On("Fetch", mock.Anything, "octocat", "hello").
		Return(nil, common.NewError(common.ErrCodeRepoNotFound, "Repository not found or is private"))

	_, err := svc.Submit(context.Background(), "octocat", "hello")
	assert.Error(t, err)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}
