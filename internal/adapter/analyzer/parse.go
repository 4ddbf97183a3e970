package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"

	"github.com/tidwall/gjson"
)

var dimensionKeys = []string{"codeQuality", "documentation", "structure", "gitPractices", "testCoverage"}

// ExtractJSON 从模型原文里截取第一个 '{' 到最后一个 '}'
// 即使模型返回 "```json { ... } ```" 也能抠出中间的对象
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", unparsable("no JSON object in model response")
	}
	return raw[start : end+1], nil
}

// ParseOutcome 抽取并校验模型输出，字段缺失或类型不对一律视为不可解析
func ParseOutcome(raw string) (*domain.AnalysisOutcome, error) {
	js, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(js) {
		return nil, unparsable("model response is not valid JSON")
	}

	doc := gjson.Parse(js)
	if !doc.IsObject() {
		return nil, unparsable("model response is not a JSON object")
	}

	overall, err := intField(doc, "overallScore")
	if err != nil {
		return nil, err
	}

	dims := make(map[string]int, len(dimensionKeys))
	for _, key := range dimensionKeys {
		v, err := intField(doc, "dimensions."+key)
		if err != nil {
			return nil, err
		}
		dims[key] = v
	}

	summary := doc.Get("summary")
	if summary.Type != gjson.String || strings.TrimSpace(summary.String()) == "" {
		return nil, unparsable("summary must be a non-empty string")
	}

	roadmapField := doc.Get("roadmap")
	if !roadmapField.IsArray() {
		return nil, unparsable("roadmap must be an array")
	}
	var roadmap []string
	for _, item := range roadmapField.Array() {
		if item.Type != gjson.String {
			return nil, unparsable("roadmap items must be strings")
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			roadmap = append(roadmap, s)
		}
	}
	if len(roadmap) == 0 {
		return nil, unparsable("roadmap must not be empty")
	}

	outcome := &domain.AnalysisOutcome{
		OverallScore: overall,
		Dimensions: domain.Dimensions{
			CodeQuality:   dims["codeQuality"],
			Documentation: dims["documentation"],
			Structure:     dims["structure"],
			GitPractices:  dims["gitPractices"],
			TestCoverage:  dims["testCoverage"],
		},
		Summary: strings.TrimSpace(summary.String()),
		Roadmap: roadmap,
		Source:  domain.SourceAI,
	}
	outcome.Normalize()
	return outcome, nil
}

// intField 读取一个数值字段并四舍五入成整数
func intField(doc gjson.Result, path string) (int, error) {
	v := doc.Get(path)
	if v.Type != gjson.Number {
		return 0, unparsable(fmt.Sprintf("%s must be a number", path))
	}
	return int(math.Round(v.Float())), nil
}

func unparsable(message string) error {
	return common.NewError(common.ErrCodeUnparsable, message)
}
