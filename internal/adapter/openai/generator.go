package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel 未配置 LLM_MODEL 时使用
const DefaultModel = "gpt-4o-mini"

// Generator 基于 OpenAI 兼容接口的 port.Generator 实现
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIGenerator baseURL 为空时使用官方地址
func NewOpenAIGenerator(apiKey, baseURL, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// 模型调用失败直接走兜底，不让 SDK 自己重试
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Generator{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: g.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "repository_evaluation",
					Strict: openai.Bool(true),
					Schema: outcomeSchema,
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("AI 返回内容为空")
	}
	return resp.Choices[0].Message.Content, nil
}

var scoreSchema = map[string]any{"type": "integer"}

var outcomeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"overallScore": scoreSchema,
		"dimensions": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"codeQuality":   scoreSchema,
				"documentation": scoreSchema,
				"structure":     scoreSchema,
				"gitPractices":  scoreSchema,
				"testCoverage":  scoreSchema,
			},
			"required":             []string{"codeQuality", "documentation", "structure", "gitPractices", "testCoverage"},
			"additionalProperties": false,
		},
		"summary": map[string]any{"type": "string"},
		"roadmap": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required":             []string{"overallScore", "dimensions", "summary", "roadmap"},
	"additionalProperties": false,
}
