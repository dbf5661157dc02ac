package common

import "errors"

// 业务错误分类，调用方通过 errors.Is 判断并转换为HTTP状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
)
