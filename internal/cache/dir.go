package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directory 独占管理单个抽取根目录的存在性。同一进程周期内最多一个根目录
// 处于活跃状态；Recreate 总是先销毁旧根再分配新根，避免残留目录累积。
//
// Directory 本身不做并发保护，调用方（协调器）保证所有变更都发生在
// 初始化临界区内。
type Directory struct {
	root string
}

// Recreate 销毁当前根（若有）并分配一个全新的唯一临时目录，返回其绝对路径。
func (d *Directory) Recreate() (string, error) {
	if err := d.Destroy(); err != nil {
		return "", err
	}

	root, err := os.MkdirTemp("", "asp-hub-pages-*")
	if err != nil {
		return "", fmt.Errorf("%w: create root: %v", ErrDirectoryLifecycle, err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		os.RemoveAll(root)
		return "", fmt.Errorf("%w: resolve root: %v", ErrDirectoryLifecycle, err)
	}

	d.root = abs
	return abs, nil
}

// Root 返回当前活跃根目录，未激活时为空串。
func (d *Directory) Root() string {
	return d.root
}

// PathUnder 把相对虚拟路径落到根目录下，并拒绝越出根目录的路径。
func (d *Directory) PathUnder(relative string) (string, error) {
	if d.root == "" {
		return "", fmt.Errorf("%w: no active root", ErrDirectoryLifecycle)
	}

	joined := filepath.Join(d.root, filepath.FromSlash(relative))
	if joined != d.root && !strings.HasPrefix(joined, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %s escapes root", ErrDirectoryLifecycle, relative)
	}
	return joined, nil
}

// Destroy 递归删除根目录并清空记录。目录已不存在视为成功，可重复调用。
func (d *Directory) Destroy() error {
	if d.root == "" {
		return nil
	}

	if err := os.RemoveAll(d.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: destroy root %s: %v", ErrDirectoryLifecycle, d.root, err)
	}
	d.root = ""
	return nil
}
