package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github-repo-grader/internal/config"
	"github-repo-grader/internal/domain"
	"github-repo-grader/internal/handler"
	"github-repo-grader/internal/logging"
	"github-repo-grader/internal/report"

	"github.com/gofiber/fiber/v3"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "repo-grader",
		Short:         "Grade a public GitHub repository",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "可选的配置文件 (环境变量优先)")

	root.AddCommand(newServeCmd(&cfgFile), newAnalyzeCmd(&cfgFile), newVersionCmd())
	return root
}

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	svc, cleanup, err := newAnalysisService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app := handler.NewApp(handler.ServerConfig{
		AppName:     cfg.AppName,
		Version:     Version,
		FrontendURL: cfg.FrontendURL,
		AccessLog:   true,
	}, svc)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("🚀 HTTP 服务启动", "addr", cfg.Addr(), "llm_provider", cfg.LLMProvider)
		errCh <- app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("👋 收到停止信号，正在退出...")
	}

	// 等待进行中的请求完成
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	return nil
}

func newAnalyzeCmd(cfgFile *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "analyze <github-url>",
		Short:   "Analyze one repository and print the report",
		Example: "  repo-grader analyze https://github.com/golang/go",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}

			svc, cleanup, err := newAnalysisService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			return runAnalyze(cmd.Context(), svc, args[0], out, asJSON || !isTerminal(out))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}

// recordRunner 执行一次不落库的分析
type recordRunner interface {
	Run(ctx context.Context, owner, repo string) (*domain.AnalysisRecord, error)
}

func runAnalyze(ctx context.Context, svc recordRunner, rawURL string, w io.Writer, asJSON bool) error {
	owner, repo, err := domain.ParseRepoURL(rawURL)
	if err != nil {
		return err
	}

	record, err := svc.Run(ctx, owner, repo)
	if err != nil {
		return err
	}

	if asJSON {
		return report.RenderJSON(w, record)
	}
	return report.NewRenderer(true).Render(w, record)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "repo-grader version %s\n", Version)
		},
	}
}

func loadConfig(cfgFile string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// isTerminal 只有写到终端时才输出彩色报告
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
