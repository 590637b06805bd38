// Package jsonl 实现 JSONL 文件写入。
// 回测是批处理而非热路径，采用同步带缓冲写入，Close 时落盘。
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer 同步 JSONL 写入器
// 非并发安全；回测输出阶段为单 goroutine 顺序写入。
type Writer struct {
	// path 输出文件路径
	path   string
	f      *os.File
	bw     *bufio.Writer
	closed bool
}

// NewWriter 创建 JSONL 写入器（覆盖写）
// 参数 path: 输出文件路径，父目录不存在时自动创建
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	return &Writer{
		path: path,
		f:    f,
		bw:   bufio.NewWriterSize(f, 1<<20), // 1MB buffer
	}, nil
}

// Write 写入一条 JSONL 记录
func (w *Writer) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("编码 JSONL 记录失败: %w", err)
	}
	if _, err := w.bw.Write(b); err != nil {
		return fmt.Errorf("写入 JSONL 记录失败: %w", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("写入 JSONL 记录失败: %w", err)
	}
	return nil
}

// WriteAll 按顺序写入多条记录
func (w *Writer) WriteAll(rows []any) error {
	for _, v := range rows {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// Close 落盘并关闭文件（幂等，重复调用无副作用）
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.bw.Flush(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("flush 输出文件失败: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	return nil
}

// Path 获取输出文件路径
func (w *Writer) Path() string {
	return w.path
}
