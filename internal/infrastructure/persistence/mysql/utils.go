package mysql

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

// isDuplicateError 判断是否为主键/唯一索引冲突
// MySQL错误码1062: Duplicate entry 'xxx' for key 'yyy'
// SQLite: UNIQUE constraint failed
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isLockConflict 判断是否为锁冲突
// 1213: Deadlock found when trying to get lock
// 1205: Lock wait timeout exceeded
// 空表上的 SELECT ... FOR UPDATE 取的是间隙锁,两个进程同时Create会互相等待
func isLockConflict(err error) bool {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}

// createError 把Create过程中的数据库错误转换为领域错误
func createError(err error, message string) error {
	switch {
	case isDuplicateError(err):
		return book.ErrDuplicateID
	case isLockConflict(err):
		return &apperrors.AppError{
			Code:    book.ErrCreateConflict.Code,
			Message: book.ErrCreateConflict.Message,
			Err:     err,
		}
	default:
		return apperrors.Wrap(err, message)
	}
}

// commitError 处理Create事务返回的错误
// nextID加锁时遇到的死锁已被包装成数据库错误,这里按底层错误码重新归类
func commitError(err error) error {
	if isLockConflict(err) {
		return createError(err, "提交事务失败")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Wrap(err, "提交事务失败")
}
