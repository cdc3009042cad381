package transport

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/arakiss-oss/vestig-go/capability"
)

// FileTransport appends one JSON line per record to a file, rotating
// to a new generation once the file exceeds MaxSize bytes and
// optionally gzipping retired generations.
type FileTransport struct {
	cfg      Config
	path     string
	maxSize  int64
	maxFiles int
	gzip     bool

	mu        sync.Mutex
	f         *os.File
	size      int64
	destroyed bool
}

// FileOptions configures a FileTransport.
type FileOptions struct {
	Config   Config
	Path     string
	MaxSize  int64
	MaxFiles int
	Gzip     bool
}

// NewFileTransport constructs a FileTransport. It fails on hosts
// without a filesystem (capability.CAPABILITIES().HasFileSystem).
func NewFileTransport(opts FileOptions) (*FileTransport, error) {
	if !capability.CAPABILITIES().HasFileSystem {
		return nil, fmt.Errorf("file transport: host has no filesystem capability")
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 10 * 1024 * 1024
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}
	if !opts.Config.Enabled {
		opts.Config.Enabled = true
	}
	ft := &FileTransport{
		cfg:      opts.Config,
		path:     opts.Path,
		maxSize:  opts.MaxSize,
		maxFiles: opts.MaxFiles,
		gzip:     opts.Gzip,
	}
	if err := ft.openAppend(); err != nil {
		return nil, err
	}
	return ft, nil
}

func (t *FileTransport) Name() string { return "file" }

func (t *FileTransport) Init(context.Context) error { return nil }

func (t *FileTransport) openAppend() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	t.f = f
	t.size = info.Size()
	return nil
}

func (t *FileTransport) Log(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || !t.cfg.Accepts(r) {
		return
	}
	line, err := json.Marshal(wireRecord{
		Timestamp: r.Timestamp,
		Level:     levelName(r.Level),
		Message:   r.Message,
		Namespace: r.Namespace,
		Runtime:   r.Runtime,
		Metadata:  r.Metadata,
		Context:   r.Context,
		Error:     r.Error,
	})
	if err != nil {
		return
	}
	line = append(line, '\n')
	n, err := t.f.Write(line)
	if err != nil {
		return
	}
	t.size += int64(n)
	if t.size >= t.maxSize {
		t.rotate()
	}
}

func (t *FileTransport) rotate() {
	t.f.Close()

	for gen := t.maxFiles - 1; gen >= 1; gen-- {
		src, srcGz := t.generationPath(gen), t.generationPath(gen)+".gz"
		dst, dstGz := t.generationPath(gen+1), t.generationPath(gen+1)+".gz"
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
		if _, err := os.Stat(srcGz); err == nil {
			os.Rename(srcGz, dstGz)
		}
	}
	rotated := t.generationPath(1)
	os.Rename(t.path, rotated)

	if t.gzip {
		t.gzipFile(rotated)
	}

	os.Remove(t.generationPath(t.maxFiles + 1))
	os.Remove(t.generationPath(t.maxFiles+1) + ".gz")

	_ = t.openAppend()
}

// generationPath returns the uncompressed rotated-file path for
// generation gen; the gzip variant is the same path plus ".gz".
func (t *FileTransport) generationPath(gen int) string {
	return fmt.Sprintf("%s.%d", t.path, gen)
}

func (t *FileTransport) gzipFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	gzPath := path + ".gz"
	out, err := os.Create(gzPath)
	if err != nil {
		return
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return
	}
	if err := gw.Close(); err != nil {
		return
	}
	in.Close()
	os.Remove(path)
}

func (t *FileTransport) Flush(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f != nil {
		return t.f.Sync()
	}
	return nil
}

func (t *FileTransport) Destroy(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	t.destroyed = true
	if t.f != nil {
		return t.f.Close()
	}
	return nil
}
