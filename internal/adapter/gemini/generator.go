package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel 未配置 LLM_MODEL 时使用
const DefaultModel = "gemini-2.5-flash-lite"

// Generator 基于 Gemini 的 port.Generator 实现
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = outcomeSchema()

	return &Generator{
		client: client,
		model:  model,
	}, nil
}

// Generate 调用一次模型并返回原始文本，不做重试
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// responseText 拼接第一个候选里所有的文本片段
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("AI 返回内容为空")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("AI 返回内容为空")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("AI 返回格式错误")
	}
	return sb.String(), nil
}

func outcomeSchema() *genai.Schema {
	score := &genai.Schema{Type: genai.TypeInteger}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallScore": score,
			"dimensions": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"codeQuality":   score,
					"documentation": score,
					"structure":     score,
					"gitPractices":  score,
					"testCoverage":  score,
				},
				Required: []string{"codeQuality", "documentation", "structure", "gitPractices", "testCoverage"},
			},
			"summary": {Type: genai.TypeString},
			"roadmap": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"overallScore", "dimensions", "summary", "roadmap"},
	}
}
