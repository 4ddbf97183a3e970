// Package report 把分析记录渲染成终端文本或 JSON
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github-repo-grader/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#64b5f6")
	colorGood    = lipgloss.Color("#66bb6a")
	colorFair    = lipgloss.Color("#fff59d")
	colorPoor    = lipgloss.Color("#ef5350")
	colorMuted   = lipgloss.Color("#888888")
)

// Renderer 终端渲染器，color 为 false 时输出纯文本
type Renderer struct {
	color bool
}

func NewRenderer(color bool) *Renderer {
	return &Renderer{color: color}
}

func (r *Renderer) style() lipgloss.Style {
	return lipgloss.NewStyle()
}

func (r *Renderer) fg(c lipgloss.Color) lipgloss.Style {
	if !r.color {
		return r.style()
	}
	return r.style().Foreground(c)
}

// scoreColor 80 以上绿色，60 以上黄色，其余红色
func scoreColor(score int) lipgloss.Color {
	switch {
	case score >= 80:
		return colorGood
	case score >= 60:
		return colorFair
	default:
		return colorPoor
	}
}

// Render 写出一份人类可读的报告
func (r *Renderer) Render(w io.Writer, rec *domain.AnalysisRecord) error {
	header := r.fg(colorPrimary).Bold(r.color)
	muted := r.fg(colorMuted)
	label := r.style().Width(16)

	var sb strings.Builder

	sb.WriteString(header.Render(rec.Owner+"/"+rec.Repo) + "\n")
	sb.WriteString(muted.Render(rec.RepoURL) + "\n\n")

	score := r.fg(scoreColor(rec.Score)).Bold(r.color).Render(fmt.Sprintf("%d/100", rec.Score))
	sb.WriteString(label.Render("Score") + score + "  " + string(rec.Category) + "\n")
	sb.WriteString(label.Render("Source") + string(rec.Source) + "\n\n")

	sb.WriteString(header.Render("Metrics") + "\n")
	for _, m := range []struct {
		name  string
		value int
	}{
		{"Code Quality", rec.Metrics.CodeQuality},
		{"Documentation", rec.Metrics.Documentation},
		{"Structure", rec.Metrics.Structure},
		{"Git Practices", rec.Metrics.GitPractices},
		{"Test Coverage", rec.Metrics.TestCoverage},
	} {
		sb.WriteString("  " + label.Render(m.name) + r.fg(scoreColor(m.value)).Render(fmt.Sprintf("%3d", m.value)) + " " + bar(m.value) + "\n")
	}

	sb.WriteString("\n" + header.Render("Repository") + "\n")
	d := rec.RepoData
	sb.WriteString("  " + label.Render("Language") + d.Language + "\n")
	sb.WriteString("  " + label.Render("Stars") + fmt.Sprint(d.Stars) + "\n")
	sb.WriteString("  " + label.Render("Forks") + fmt.Sprint(d.Forks) + "\n")
	sb.WriteString("  " + label.Render("Commits") + fmt.Sprint(d.TotalCommits) + "\n")
	sb.WriteString("  " + label.Render("Files") + fmt.Sprint(d.FileCount) + "\n")
	if !d.LastUpdated.IsZero() {
		sb.WriteString("  " + label.Render("Last Updated") + d.LastUpdated.Format("2006-01-02") + "\n")
	}

	sb.WriteString("\n" + header.Render("Summary") + "\n")
	sb.WriteString("  " + rec.Summary + "\n")

	sb.WriteString("\n" + header.Render("Roadmap") + "\n")
	for i, item := range rec.Roadmap {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, item))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// bar 把 0-100 的分数画成 20 格的条
func bar(score int) string {
	filled := max(0, min(score, 100)) / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

// RenderJSON 输出与 HTTP 接口一致的 JSON
func RenderJSON(w io.Writer, rec *domain.AnalysisRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
