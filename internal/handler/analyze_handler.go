package handler

import (
	"context"
	"log/slog"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/logging"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// AnalysisService handler 依赖的业务接口
type AnalysisService interface {
	Submit(ctx context.Context, owner, repo string) (string, error)
	Lookup(ctx context.Context, id string) (*domain.AnalysisRecord, error)
}

// AnalyzeHandler 提交分析和查询结果
type AnalyzeHandler struct {
	service AnalysisService
	logger  *slog.Logger
}

func NewAnalyzeHandler(service AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{
		service: service,
		logger:  logging.WithComponent("handler"),
	}
}

// Register 在 /api 下挂载 /analyze
func (h *AnalyzeHandler) Register(api fiber.Router) {
	api.Post("/analyze", h.Submit)
	api.Get("/analyze", h.Lookup)
}

type submitRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Submit POST /api/analyze  {owner, repo} -> {id}
func (h *AnalyzeHandler) Submit(c fiber.Ctx) error {
	var body submitRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Owner and repo are required"})
	}

	id, err := h.service.Submit(c.Context(), body.Owner, body.Repo)
	if err != nil {
		h.logger.Error("❌ 分析请求失败",
			"request_id", requestid.FromContext(c),
			"owner", body.Owner,
			"repo", body.Repo,
			"error", err,
		)
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": messageFor(err)})
	}

	return c.JSON(fiber.Map{"id": id})
}

// Lookup GET /api/analyze?id=
func (h *AnalyzeHandler) Lookup(c fiber.Ctx) error {
	record, err := h.service.Lookup(c.Context(), c.Query("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": messageFor(err)})
	}
	return c.JSON(record)
}

// statusFor 按错误码映射 HTTP 状态，抓取失败一律 500
func statusFor(err error) int {
	switch common.CodeOf(err) {
	case common.ErrCodeInvalidInput:
		return fiber.StatusBadRequest
	case common.ErrCodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// messageFor 错误信息原样返回给调用方，没有信息时给通用提示
func messageFor(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to analyze repository"
}
