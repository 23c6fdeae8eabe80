package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// FSBundle adapts an fs.FS (typically an embed.FS) into a Bundle. Slash paths
// are rewritten into dotted resource identifiers under the declared namespace
// root, e.g. "Shop/Cart.aspx" becomes "<root>.Shop.Cart.aspx".
type FSBundle struct {
	key   string
	fsys  fs.FS
	ids   []string
	paths map[string]string
}

// NewFSBundle 遍历 fsys 构建标识符索引。fs.WalkDir 的字典序即 Resources()
// 的枚举顺序。路径段中出现的句点原样保留，因此反向查找依赖索引而非再映射。
func NewFSBundle(key, namespaceRoot string, fsys fs.FS) (*FSBundle, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("bundle key is required")
	}
	if strings.TrimSpace(namespaceRoot) == "" {
		return nil, errors.New("namespace root is required")
	}
	if fsys == nil {
		return nil, errors.New("filesystem is required")
	}

	b := &FSBundle{
		key:   strings.ToLower(strings.TrimSpace(key)),
		fsys:  fsys,
		paths: make(map[string]string),
	}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		id := namespaceRoot + "." + strings.ReplaceAll(path, "/", ".")
		if _, exists := b.paths[id]; exists {
			return fmt.Errorf("duplicate resource identifier %s", id)
		}
		b.ids = append(b.ids, id)
		b.paths[id] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index bundle %s: %w", key, err)
	}
	return b, nil
}

// Key returns the registry key.
func (b *FSBundle) Key() string {
	return b.key
}

// Resources returns an independent copy of the identifier list.
func (b *FSBundle) Resources() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}

// Open returns a reader over the named resource.
func (b *FSBundle) Open(resourceID string) (io.ReadCloser, error) {
	path, ok := b.paths[resourceID]
	if !ok {
		return nil, fmt.Errorf("resource %s not found in bundle %s", resourceID, b.key)
	}
	f, err := b.fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resource %s in bundle %s: %w", resourceID, b.key, err)
	}
	return f, nil
}
