package respath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidArgument 表示调用方传入了空值或非法的点分标识符。
var ErrInvalidArgument = errors.New("invalid argument")

// ErrPrefixMismatch indicates the resource identifier does not live under the
// configured namespace root. It is distinct from ErrInvalidArgument because it
// signals a configuration/bundle mismatch rather than caller misuse.
var ErrPrefixMismatch = errors.New("namespace prefix mismatch")

// Map 将 Bundle 内的点分资源标识符转换为 destRoot 下的文件系统路径。
//
// 规则：剥离 `namespaceRoot.` 前缀后，余下部分以最后一个句点为扩展名分界，
// 之前的句点全部替换为路径分隔符。destRoot 为空时落到进程工作目录。
// 例：Map("App.Pages", "App.Pages.Shop.Cart.aspx", "/tmp/x") → /tmp/x/Shop/Cart.aspx。
//
// 多段扩展名（如 Page.zh-CN.aspx）会把中间段当作目录处理，这是已知的
// 映射损耗，目前不做特殊处理。
func Map(namespaceRoot, resourceID, destRoot string) (string, error) {
	if err := validateDotted("namespace root", namespaceRoot); err != nil {
		return "", err
	}
	if err := validateDotted("resource identifier", resourceID); err != nil {
		return "", err
	}

	prefix := namespaceRoot + "."
	if !strings.HasPrefix(resourceID, prefix) {
		return "", fmt.Errorf("%w: %s does not start with %s", ErrPrefixMismatch, resourceID, prefix)
	}

	remainder := strings.TrimPrefix(resourceID, prefix)
	rel := remainder
	if idx := strings.LastIndexByte(remainder, '.'); idx >= 0 {
		segments := strings.Split(remainder[:idx], ".")
		rel = filepath.Join(segments...) + remainder[idx:]
	}

	abs, err := filepath.Abs(filepath.Join(destRoot, rel))
	if err != nil {
		return "", fmt.Errorf("resolve mapped path: %w", err)
	}
	return abs, nil
}

// ValidateRoot 校验命名空间根是否符合点分标识符规则，配置层在启动前复用
// 同一套规则，避免非法绑定进入抽取流程。
func ValidateRoot(value string) error {
	return validateDotted("namespace root", value)
}

// validateDotted 按顺序检查空值、首尾句点与连续句点，命中第一条即返回。
func validateDotted(what, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, what)
	}
	if strings.HasPrefix(value, ".") {
		return fmt.Errorf("%w: %s starts with a period", ErrInvalidArgument, what)
	}
	if strings.HasSuffix(value, ".") {
		return fmt.Errorf("%w: %s ends with a period", ErrInvalidArgument, what)
	}
	if strings.Contains(value, "..") {
		return fmt.Errorf("%w: %s contains consecutive periods", ErrInvalidArgument, what)
	}
	return nil
}
