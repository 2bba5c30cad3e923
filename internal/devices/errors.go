package devices

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound 目录 / 别名表 / 上传文件不存在
	ErrSourceNotFound = errors.New("source not found")
	// ErrMissingColumn 表头缺少必需列
	ErrMissingColumn = errors.New("missing required column")
)

// LoadError 读取某个数据源失败
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RowSkipError 单行数据无法使用；只记日志和计数，不向上返回
type RowSkipError struct {
	Row    int
	Reason string
}

func (e *RowSkipError) Error() string {
	return fmt.Sprintf("row %d skipped: %s", e.Row, e.Reason)
}

// IsNotFound reports whether err means a data source file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound)
}
