package cache

import (
	"errors"
	"fmt"
)

// 错误分级：ErrInvalidArgument 属于调用方误用；ErrBundleLoad 与
// ErrDirectoryLifecycle 对整个初始化过程都是致命的，协调器会中止本轮抽取。
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrBundleLoad         = errors.New("bundle load failed")
	ErrDirectoryLifecycle = errors.New("cache directory lifecycle failed")
)

// ExtractError 携带 bundle、资源标识符与目标路径，便于定位一次失败的抽取。
type ExtractError struct {
	Bundle      string
	Resource    string
	Destination string
	Err         error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s from bundle %s to %s: %v", e.Resource, e.Bundle, e.Destination, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractError) Unwrap() error {
	return e.Err
}
