package domain

import (
	"regexp"
	"strings"
	"time"

	"github-repo-grader/internal/common"
)

// RepositorySignals 从 GitHub 元数据和顶层目录推导出的信号，每次提交都重新计算
type RepositorySignals struct {
	PrimaryLanguage string `json:"primary_language"`
	Stars           int    `json:"stars"`
	Forks           int    `json:"forks"`
	CommitCount     int    `json:"commit_count"` // 最近一页，最多 100
	FileCount       int    `json:"file_count"`   // 只统计顶层 type=file 的条目

	HasReadme    bool `json:"has_readme"`
	HasGitignore bool `json:"has_gitignore"`
	HasLicense   bool `json:"has_license"`
	HasTests     bool `json:"has_tests"`
	HasCICD      bool `json:"has_cicd"`
}

// ContentItem 顶层目录中的一个条目
type ContentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // file / dir / symlink / submodule
}

// RepositoryData 抓取器的输出，只在一次请求内存活，不落库
type RepositoryData struct {
	Owner       string
	Name        string
	Description string
	UpdatedAt   time.Time

	Languages   map[string]int // 语言名 -> 字节数
	CommitDates []time.Time    // 按 GitHub 返回顺序，最新的在前
	Contents    []ContentItem

	Signals RepositorySignals
}

// Dimensions 五个维度的评分 (0-100)
type Dimensions struct {
	CodeQuality   int `json:"codeQuality"`
	Documentation int `json:"documentation"`
	Structure     int `json:"structure"`
	GitPractices  int `json:"gitPractices"`
	TestCoverage  int `json:"testCoverage"`
}

// OutcomeSource 标记评分来自模型还是兜底规则
type OutcomeSource string

const (
	SourceAI       OutcomeSource = "ai"
	SourceFallback OutcomeSource = "fallback"
)

// MaxRoadmapItems 改进路线的上限
const MaxRoadmapItems = 6

// AnalysisOutcome AI 分析器或兜底打分器的产出
type AnalysisOutcome struct {
	OverallScore int           `json:"overallScore"`
	Dimensions   Dimensions    `json:"dimensions"`
	Summary      string        `json:"summary"`
	Roadmap      []string      `json:"roadmap"`
	Source       OutcomeSource `json:"source"`
}

// Normalize 把所有分数钳到 [0,100]，并把路线截断到上限
func (o *AnalysisOutcome) Normalize() {
	o.OverallScore = Clamp(o.OverallScore)
	o.Dimensions.CodeQuality = Clamp(o.Dimensions.CodeQuality)
	o.Dimensions.Documentation = Clamp(o.Dimensions.Documentation)
	o.Dimensions.Structure = Clamp(o.Dimensions.Structure)
	o.Dimensions.GitPractices = Clamp(o.Dimensions.GitPractices)
	o.Dimensions.TestCoverage = Clamp(o.Dimensions.TestCoverage)

	if len(o.Roadmap) > MaxRoadmapItems {
		o.Roadmap = o.Roadmap[:MaxRoadmapItems]
	}
}

// Clamp 把分数限制在 [0,100]
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Category 由总分推导出的等级
type Category string

const (
	CategoryBeginner     Category = "Beginner"
	CategoryIntermediate Category = "Intermediate"
	CategoryAdvanced     Category = "Advanced"
)

// CategoryFor 总分 >=80 为 Advanced，>=60 为 Intermediate，其余为 Beginner
func CategoryFor(score int) Category {
	switch {
	case score >= 80:
		return CategoryAdvanced
	case score >= 60:
		return CategoryIntermediate
	default:
		return CategoryBeginner
	}
}

// RepoSnapshot 记录里保留的一份仓库快照
type RepoSnapshot struct {
	Language     string    `json:"language"`
	Stars        int       `json:"stars"`
	Forks        int       `json:"forks"`
	LastUpdated  time.Time `json:"lastUpdated"`
	TotalCommits int       `json:"totalCommits"`
	FileCount    int       `json:"fileCount"`
}

// AnalysisRecord 一次提交的完整分析结果，创建后不再修改
type AnalysisRecord struct {
	ID        string        `json:"id"`
	RepoURL   string        `json:"repoUrl"`
	Owner     string        `json:"owner"`
	Repo      string        `json:"repo"`
	Score     int           `json:"score"`
	Category  Category      `json:"category"`
	Summary   string        `json:"summary"`
	Roadmap   []string      `json:"roadmap"`
	Metrics   Dimensions    `json:"metrics"`
	RepoData  RepoSnapshot  `json:"repoData"`
	Source    OutcomeSource `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
}

// Clone 返回一份深拷贝，存储层借此保证记录不可变
func (r *AnalysisRecord) Clone() *AnalysisRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Roadmap = append([]string(nil), r.Roadmap...)
	return &cp
}

// RepoURL 拼出仓库的 GitHub 主页地址
func RepoURL(owner, repo string) string {
	return "https://github.com/" + owner + "/" + repo
}

var repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([\w-]+)/([\w.-]+?)/?$`)

// ParseRepoURL 从 https://github.com/owner/repo 形式的地址中解析出 owner 和 repo
func ParseRepoURL(raw string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", common.NewError(common.ErrCodeInvalidInput, "Please enter a valid GitHub repository URL")
	}

	owner = m[1]
	repo = strings.TrimSuffix(m[2], ".git")
	if repo == "" {
		return "", "", common.NewError(common.ErrCodeInvalidInput, "Please enter a valid GitHub repository URL")
	}
	return owner, repo, nil
}
