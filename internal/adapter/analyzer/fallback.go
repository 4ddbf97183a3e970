package analyzer

import (
	"fmt"
	"strings"

	"github-repo-grader/internal/domain"
)

// 兜底打分的加分项
const (
	baseScore       = 50
	readmeBonus     = 10
	gitignoreBonus  = 5
	licenseBonus    = 5
	testsBonus      = 15
	cicdBonus       = 10
	activityBonus   = 5
	activeCommits   = 50 // 超过这个提交数才有活跃度加分
	steadyCommits   = 20 // 超过这个提交数 gitPractices 才给高分
	structuredFiles = 5  // 顶层文件数超过它才算结构完整
)

// roadmapCandidates 按顺序排列的候选建议，gap 为 true 时才入选
var roadmapCandidates = []struct {
	action string
	gap    func(domain.RepositorySignals) bool
}{
	{"Add comprehensive README.md with setup instructions", func(s domain.RepositorySignals) bool { return !s.HasReadme }},
	{"Implement unit and integration tests", func(s domain.RepositorySignals) bool { return !s.HasTests }},
	{"Set up CI/CD pipeline with GitHub Actions", func(s domain.RepositorySignals) bool { return !s.HasCICD }},
	{"Add an appropriate open-source license", func(s domain.RepositorySignals) bool { return !s.HasLicense }},
	{"Improve code documentation and comments", func(domain.RepositorySignals) bool { return true }},
	{"Follow consistent Git commit message conventions", func(domain.RepositorySignals) bool { return true }},
}

// Fallback 纯函数、无 I/O 的规则打分，模型不可用时使用
func Fallback(s domain.RepositorySignals) *domain.AnalysisOutcome {
	score := baseScore
	if s.HasReadme {
		score += readmeBonus
	}
	if s.HasGitignore {
		score += gitignoreBonus
	}
	if s.HasLicense {
		score += licenseBonus
	}
	if s.HasTests {
		score += testsBonus
	}
	if s.HasCICD {
		score += cicdBonus
	}
	if s.CommitCount > activeCommits {
		score += activityBonus
	}
	score = min(score, 100)

	var roadmap []string
	for _, c := range roadmapCandidates {
		if c.gap(s) {
			roadmap = append(roadmap, c.action)
		}
	}

	outcome := &domain.AnalysisOutcome{
		OverallScore: score,
		Dimensions: domain.Dimensions{
			CodeQuality:   pick(s.HasTests, 70, 50),
			Documentation: pick(s.HasReadme, 80, 30),
			Structure:     pick(s.FileCount > structuredFiles, 70, 50),
			GitPractices:  pick(s.CommitCount > steadyCommits, 75, 55),
			TestCoverage:  pick(s.HasTests, 70, 20),
		},
		Summary: fallbackSummary(domain.CategoryFor(score), s),
		Roadmap: roadmap,
		Source:  domain.SourceFallback,
	}
	outcome.Normalize()
	return outcome
}

func fallbackSummary(category domain.Category, s domain.RepositorySignals) string {
	docs := "Documentation needs improvement."
	if s.HasReadme {
		docs = "Good documentation present."
	}
	tests := "Missing test coverage."
	if s.HasTests {
		tests = "Has test coverage."
	}
	return fmt.Sprintf("Repository shows %s level development practices. %s %s",
		strings.ToLower(string(category)), docs, tests)
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
