package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/asp-hub/asp-hub/internal/bundle"
)

// copyBufferSize 是抽取时的固定分块大小。
const copyBufferSize = 1024

// Extract 把 Bundle 内一个资源的字节流落盘到 destination。
//
// 目标文件采用 create-new 语义：已存在时直接失败，抽取永远不会静默覆盖。
// 任何打开/拷贝阶段的失败都包装成 *ExtractError；中途失败时已写入的
// 半成品文件保留原样，由调用方把整轮初始化判为失败并重建缓存根。
func Extract(b bundle.Bundle, resourceID, destination string) error {
	if b == nil {
		return fmt.Errorf("%w: bundle is required", ErrInvalidArgument)
	}
	if resourceID == "" {
		return fmt.Errorf("%w: resource identifier is empty", ErrInvalidArgument)
	}
	if destination == "" {
		return fmt.Errorf("%w: destination path is empty", ErrInvalidArgument)
	}

	wrap := func(err error) error {
		return &ExtractError{Bundle: b.Key(), Resource: resourceID, Destination: destination, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return wrap(fmt.Errorf("create parent directory: %w", err))
	}

	src, err := b.Open(resourceID)
	if err != nil {
		return wrap(err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return wrap(err)
	}

	if err := copyChunks(dst, src); err != nil {
		dst.Close()
		return wrap(err)
	}
	if err := dst.Close(); err != nil {
		return wrap(fmt.Errorf("close destination: %w", err))
	}
	return nil
}

// copyChunks 以固定大小分块搬运字节，最后一个不满块只写实际读到的长度。
func copyChunks(dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			if wErr != nil {
				return wErr
			}
			if w < n {
				return io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
