package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// 上传文件类型
const (
	UploadSKU     = "sku"
	UploadTradeIn = "tradein"
)

var ErrUploadNotFound = errors.New("upload not found")

var safeCode = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// UploadStore 每个促销最多一个 SKU 清单、一个 trade-in 机型清单
type UploadStore interface {
	Save(code, kind string, r io.Reader) error
	Open(code, kind string) (io.ReadCloser, error)
	Exists(code, kind string) bool
}

// FileUploadStore 上传文件落盘：<dir>/<code>/<kind>.xlsx
type FileUploadStore struct {
	dir string
}

func NewFileUploadStore(dir string) *FileUploadStore {
	return &FileUploadStore{dir: dir}
}

var _ UploadStore = (*FileUploadStore)(nil)

func (s *FileUploadStore) path(code, kind string) (string, error) {
	if kind != UploadSKU && kind != UploadTradeIn {
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}
	name := safeCode.ReplaceAllString(strings.TrimSpace(code), "_")
	if name == "" || strings.Trim(name, ".") == "" {
		return "", fmt.Errorf("invalid promotion code %q", code)
	}
	return filepath.Join(s.dir, name, kind+".xlsx"), nil
}

// Save 覆盖已有文件（临时文件 + rename）
func (s *FileUploadStore) Save(code, kind string, r io.Reader) error {
	p, err := s.path(code, kind)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(p), ".upload-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}

func (s *FileUploadStore) Open(code, kind string) (io.ReadCloser, error) {
	p, err := s.path(code, kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}

func (s *FileUploadStore) Exists(code, kind string) bool {
	p, err := s.path(code, kind)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
