package analyzer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github-repo-grader/internal/domain"
)

// AverageDaysBetweenCommits (最新 - 最早) / (提交数 * 1 天)，少于两个提交时为 0
func AverageDaysBetweenCommits(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 0
	}

	newest, oldest := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.After(newest) {
			newest = d
		}
		if d.Before(oldest) {
			oldest = d
		}
	}

	return newest.Sub(oldest).Hours() / 24 / float64(len(dates))
}

// BuildPrompt 把抓到的信号拼成给模型的评审提示词
func BuildPrompt(owner, repo string, data *domain.RepositoryData) string {
	s := data.Signals

	description := data.Description
	if description == "" {
		description = "No description"
	}

	languages := make([]string, 0, len(data.Languages))
	for name := range data.Languages {
		languages = append(languages, name)
	}
	slices.Sort(languages)

	return fmt.Sprintf(`You are an expert code reviewer evaluating a GitHub repository. Analyze the following repository data and provide a comprehensive evaluation.

Repository: %s/%s
Description: %s
Primary Language: %s
Stars: %d
Forks: %d
Total Commits: %d

Repository Metrics:
- Has README: %s
- Has .gitignore: %s
- Has License: %s
- Has Tests: %s
- Has CI/CD: %s
- File Count: %d
- Average Days Between Commits: %.1f

Languages Used: %s

Based on this data, provide:

1. A numerical score from 0-100 evaluating overall repository quality
2. Scores for these dimensions (0-100 each):
   - Code Quality & Readability
   - Documentation & Clarity
   - Project Structure & Organization
   - Git Practices & Consistency
   - Test Coverage & Maintainability

3. A 2-3 sentence summary of the repository's strengths and weaknesses
4. A list of 4-6 specific, actionable improvements the developer should make

Format your response as JSON:
{
  "overallScore": <number>,
  "dimensions": {
    "codeQuality": <number>,
    "documentation": <number>,
    "structure": <number>,
    "gitPractices": <number>,
    "testCoverage": <number>
  },
  "summary": "<string>",
  "roadmap": ["<action 1>", "<action 2>", ...]
}

Be honest but constructive. Focus on practical improvements.`,
		owner, repo,
		description,
		s.PrimaryLanguage,
		s.Stars,
		s.Forks,
		s.CommitCount,
		yesNo(s.HasReadme),
		yesNo(s.HasGitignore),
		yesNo(s.HasLicense),
		yesNo(s.HasTests),
		yesNo(s.HasCICD),
		s.FileCount,
		AverageDaysBetweenCommits(data.CommitDates),
		strings.Join(languages, ", "),
	)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
