package book

import (
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrInvalidArgument 调用参数不合法(缺少ID、重复分配ID等)
	ErrInvalidArgument = apperrors.New(apperrors.ErrCodeInvalidArgument, "图书ID不合法")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")

	// ErrInvalidStock 无效的库存
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrDuplicateID ID冲突(主键重复)
	ErrDuplicateID = apperrors.New(apperrors.ErrCodeDuplicateEntry, "图书ID已存在")

	// ErrCreateConflict 并发创建时数据库检测到死锁或锁等待超时,调用方可重试
	ErrCreateConflict = apperrors.New(apperrors.ErrCodeConcurrentConflict, "并发创建冲突，请重试")
)
