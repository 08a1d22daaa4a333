// Package cli 实现stockctl命令行
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/stockmanagement/internal/application/book"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/config"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
	"github.com/xiebiao/stockmanagement/pkg/logger"
	"github.com/xiebiao/stockmanagement/pkg/metrics"
	"github.com/xiebiao/stockmanagement/pkg/tracing"
)

// App 命令行用到的用例集合
type App struct {
	ListBooks    *appbook.ListBooksUseCase
	GetBook      *appbook.GetBookUseCase
	UpdateStock  *appbook.UpdateStockUseCase
	RegisterBook *appbook.RegisterBookUseCase
}

// Builder 按配置组装App，返回的cleanup释放数据库等连接
type Builder func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error)

// 输出格式
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type rootOptions struct {
	configPath string
	output     string
	noColor    bool

	version string
	build   Builder

	cfg            *config.Config
	logger         *zap.Logger
	app            *App
	cleanup        func()
	shutdownTracer func(context.Context) error
}

// Run 执行命令行，返回进程退出码
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, version string, build Builder) int {
	o := &rootOptions{version: version, build: build}
	root := newRootCmd(o)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	o.close(ctx)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "stockctl",
		Short: "图书库存管理",
		Long: `stockctl 管理图书库存记录：查询、登记新书、修改库存。

数据库、缓存、消息队列等连接参数来自配置文件（--config），
也可以用STOCK_前缀的环境变量覆盖，如 STOCK_DATABASE_PASSWORD。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.noColor {
				color.NoColor = true
			}
			if cmd.Name() == "version" {
				return nil
			}
			return o.init(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	flags.StringVarP(&o.output, "output", "o", OutputTable, "输出格式：table | json | yaml")
	flags.BoolVar(&o.noColor, "no-color", false, "关闭彩色输出")

	root.AddCommand(
		newListCmd(o),
		newGetCmd(o),
		newSetStockCmd(o),
		newAddCmd(o),
		newNextIDCmd(o),
		newWatchCmd(o),
		newVersionCmd(o),
	)
	return root
}

// init 加载配置、创建日志和追踪
func (o *rootOptions) init(ctx context.Context) error {
	switch o.output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidParams, fmt.Sprintf("不支持的输出格式: %s", o.output))
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	o.logger, err = logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return err
	}

	if cfg.Tracing.Enabled {
		o.shutdownTracer, err = tracing.InitTracer(ctx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			o.logger.Warn("链路追踪初始化失败，继续执行", zap.Error(err))
		}
	}
	return nil
}

// getApp 首次使用时组装依赖
func (o *rootOptions) getApp(ctx context.Context) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, cleanup, err := o.build(ctx, o.cfg, o.logger)
	if err != nil {
		return nil, err
	}
	o.app, o.cleanup = app, cleanup
	return app, nil
}

// close 释放连接，推送指标
func (o *rootOptions) close(ctx context.Context) {
	if o.cleanup != nil {
		o.cleanup()
	}
	if o.shutdownTracer != nil {
		if err := o.shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			o.logger.Warn("关闭链路追踪失败", zap.Error(err))
		}
	}
	if o.cfg != nil && o.cfg.Metrics.PushgatewayURL != "" {
		if err := metrics.Push(o.cfg.Metrics.PushgatewayURL, o.cfg.Metrics.Job); err != nil {
			o.logger.Warn("推送指标失败", zap.Error(err))
		}
	}
	if o.logger != nil {
		_ = o.logger.Sync()
	}
}

// printError 红色输出错误，AppError带上错误码
func printError(w io.Writer, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(w, "%s [%d] %s\n", color.RedString("error:"), appErr.Code, appErr.Message)
		if appErr.Err != nil {
			fmt.Fprintf(w, "  %s %v\n", color.New(color.Faint).Sprint("cause:"), appErr.Err)
		}
		return
	}
	fmt.Fprintln(w, color.RedString("error:"), err)
}
