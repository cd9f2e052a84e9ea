package filesystem

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// PlatformUtils 平台兼容性工具
type PlatformUtils struct{}

// NewPlatformUtils 创建平台工具实例
func NewPlatformUtils() *PlatformUtils {
	return &PlatformUtils{}
}

// ValidatePath 验证路径是否安全
func (p *PlatformUtils) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path must not be empty")
	}

	if len(path) > 2000 {
		return fmt.Errorf("path too long: %d characters", len(path))
	}

	// 检查是否包含路径遍历
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", path)
		}
	}

	return nil
}

// IsCaseSensitive 检查当前文件系统是否大小写敏感
func (p *PlatformUtils) IsCaseSensitive() bool {
	switch runtime.GOOS {
	case "windows":
		return false
	default:
		return true
	}
}

// NormalizePath 标准化路径
func (p *PlatformUtils) NormalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	cleanPath := filepath.Clean(absPath)

	// 如果文件系统不区分大小写，转换为小写
	if !p.IsCaseSensitive() {
		cleanPath = strings.ToLower(cleanPath)
	}

	return cleanPath
}
