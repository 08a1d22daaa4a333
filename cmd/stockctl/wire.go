//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后运行 `go generate ./cmd/stockctl` 重新生成wire_gen.go

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/stockmanagement/internal/application/book"
	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/config"
	"github.com/xiebiao/stockmanagement/internal/interface/cli"
)

// infrastructureSet 存储、缓存、消息队列
var infrastructureSet = wire.NewSet(
	provideRepository,
	provideCache,
	providePublisher,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	book.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewUpdateStockUseCase,
	appbook.NewRegisterBookUseCase,
	wire.Struct(new(cli.App), "*"),
)

// initializeApp 组装命令行依赖
func initializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cli.App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
	)
	return nil, nil, nil
}
