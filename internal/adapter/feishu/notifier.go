package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/logging"
)

// Notifier 分析完成后推送飞书卡片，实现了 port.Notifier 接口
type Notifier struct {
	webhookURL string
	client     *http.Client
	maxRetries int
	logger     *slog.Logger
}

func NewNotifier(webhook string) *Notifier {
	logger := logging.WithComponent("feishu")
	if webhook == "" {
		logger.Warn("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{
		webhookURL: webhook,
		client:     &http.Client{Timeout: 5 * time.Second},
		maxRetries: 2,
		logger:     logger,
	}
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, rec *domain.AnalysisRecord) error {
	if n.webhookURL == "" {
		return fmt.Errorf("Webhook URL 为空")
	}

	body, err := json.Marshal(buildCard(rec))
	if err != nil {
		return fmt.Errorf("构造卡片失败: %w", err)
	}

	err = common.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(n.maxRetries),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}

	n.logger.Info("📨 已推送分析结果", "id", rec.ID)
	return nil
}

// cardTemplate 按等级选卡片颜色
func cardTemplate(c domain.Category) string {
	switch c {
	case domain.CategoryAdvanced:
		return "green"
	case domain.CategoryIntermediate:
		return "blue"
	default:
		return "orange"
	}
}

func buildCard(rec *domain.AnalysisRecord) map[string]any {
	title := fmt.Sprintf("📊 仓库评分: %s/%s", rec.Owner, rec.Repo)

	var roadmap strings.Builder
	for i, item := range rec.Roadmap {
		fmt.Fprintf(&roadmap, "%d. %s\n", i+1, item)
	}

	m := rec.Metrics
	mdContent := fmt.Sprintf(`**🏆 总分:** %d/100  |  **等级:** %s  |  **来源:** %s
**⭐ Stars:** %d  |  **语言:** %s  |  **提交:** %d

**📐 维度:** 代码 %d · 文档 %d · 结构 %d · Git %d · 测试 %d

**📝 总结:**
%s

**🛠 改进建议:**
%s`,
		rec.Score, rec.Category, rec.Source,
		rec.RepoData.Stars, rec.RepoData.Language, rec.RepoData.TotalCommits,
		m.CodeQuality, m.Documentation, m.Structure, m.GitPractices, m.TestCoverage,
		rec.Summary,
		roadmap.String())

	return map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"schema": "2.0",
			"config": map[string]any{
				"update_multi": true,
			},
			"header": map[string]any{
				"title": map[string]any{
					"tag":     "plain_text",
					"content": title,
				},
				"template": cardTemplate(rec.Category),
			},
			"body": map[string]any{
				"direction": "vertical",
				"elements": []map[string]any{
					{
						"tag":       "markdown",
						"content":   mdContent,
						"text_size": "normal",
					},
					{
						"tag": "button",
						"text": map[string]any{
							"tag":     "plain_text",
							"content": "🔗 查看仓库",
						},
						"type": "primary",
						"behaviors": []map[string]any{
							{
								"type":        "open_url",
								"default_url": rec.RepoURL,
							},
						},
					},
				},
			},
		},
	}
}
