package bundle

import "io"

// Bundle 描述一个可加载的插件包：枚举内嵌资源并按标识符打开字节流。
type Bundle interface {
	// Key 返回注册表中的唯一键值，应当是小写短名。
	Key() string

	// Resources 返回全部资源的点分标识符，顺序在多次调用间保持一致。
	// 返回的切片必须是独立副本，调用方修改不影响 Bundle 内部状态。
	Resources() []string

	// Open 打开指定资源的只读字节流；资源不存在时返回错误。
	Open(resourceID string) (io.ReadCloser, error)
}
