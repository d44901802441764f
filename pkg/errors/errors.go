// Package errors 存放跨层共享的存储错误
package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：version 不匹配，记录已被并发请求修改
var ErrOptimisticLock = errors.New("记录已被其他请求修改，请刷新后重试")
