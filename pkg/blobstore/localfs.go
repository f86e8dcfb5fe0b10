package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// LocalFS is the default Connector: the blob container is a root directory
// on the local filesystem, and every logical path is joined onto it with
// filepath.Join after cleaning. Grounded on the teacher's direct os /
// path/filepath usage throughout its BoltDB store and secret handling.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at root, creating the directory if
// it does not already exist.
func NewLocalFS(root string) (*LocalFS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &Error{Kind: classifyOSErr(err), Op: "NewLocalFS", Path: root, Cause: err}
	}
	return &LocalFS{root: root}, nil
}

func (l *LocalFS) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(filepath.Clean("/"+path)))
}

func (l *LocalFS) FileExists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(l.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Kind: classifyOSErr(err), Op: "FileExists", Path: path, Cause: err}
	}
	return !info.IsDir(), nil
}

func (l *LocalFS) DirExists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(l.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Kind: classifyOSErr(err), Op: "DirExists", Path: path, Cause: err}
	}
	return info.IsDir(), nil
}

func (l *LocalFS) FileSize(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return 0, &Error{Kind: classifyOSErr(err), Op: "FileSize", Path: path, Cause: err}
	}
	return info.Size(), nil
}

func (l *LocalFS) ReadRange(_ context.Context, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, &Error{Kind: classifyOSErr(err), Op: "ReadRange", Path: path, Cause: err}
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Kind: ErrIO, Op: "ReadRange", Path: path, Cause: err}
	}
	return buf[:n], nil
}

func (l *LocalFS) Append(_ context.Context, path string, data []byte) (int64, error) {
	resolved := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return 0, &Error{Kind: classifyOSErr(err), Op: "Append", Path: path, Cause: err}
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, &Error{Kind: classifyOSErr(err), Op: "Append", Path: path, Cause: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, &Error{Kind: ErrIO, Op: "Append", Path: path, Cause: err}
	}
	offset := info.Size()

	if _, err := f.Write(data); err != nil {
		return 0, &Error{Kind: ErrIO, Op: "Append", Path: path, Cause: err}
	}
	if err := f.Sync(); err != nil {
		return 0, &Error{Kind: ErrIO, Op: "Append", Path: path, Cause: err}
	}
	return offset, nil
}

func (l *LocalFS) Truncate(_ context.Context, path string, size int64) error {
	if err := os.Truncate(l.resolve(path), size); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "Truncate", Path: path, Cause: err}
	}
	return nil
}

func (l *LocalFS) Delete(_ context.Context, path string) error {
	if err := os.Remove(l.resolve(path)); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "Delete", Path: path, Cause: err}
	}
	return nil
}

func (l *LocalFS) Move(_ context.Context, src, dst string) error {
	resolvedDst := l.resolve(dst)
	if err := os.MkdirAll(filepath.Dir(resolvedDst), 0o755); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "Move", Path: dst, Cause: err}
	}
	if err := os.Rename(l.resolve(src), resolvedDst); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "Move", Path: src, Cause: err}
	}
	return nil
}

func (l *LocalFS) ListChildren(_ context.Context, path string) ([]ChildInfo, error) {
	entries, err := os.ReadDir(l.resolve(path))
	if err != nil {
		return nil, &Error{Kind: classifyOSErr(err), Op: "ListChildren", Path: path, Cause: err}
	}
	children := make([]ChildInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		children = append(children, ChildInfo{
			Path:  filepath.ToSlash(filepath.Join(path, e.Name())),
			IsDir: e.IsDir(),
			Size:  info.Size(),
		})
	}
	return children, nil
}

func (l *LocalFS) CreateDir(_ context.Context, path string) error {
	if err := os.MkdirAll(l.resolve(path), 0o755); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "CreateDir", Path: path, Cause: err}
	}
	return nil
}

func (l *LocalFS) CreateFile(_ context.Context, path string) error {
	resolved := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "CreateFile", Path: path, Cause: err}
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return &Error{Kind: classifyOSErr(err), Op: "CreateFile", Path: path, Cause: err}
	}
	return f.Close()
}

// AvailableBytes reports headroom on the filesystem backing root, for
// pkg/health's DiskSpaceCheck.
func (l *LocalFS) AvailableBytes() (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(l.root, &stat); err != nil {
		return 0, &Error{Kind: ErrIO, Op: "AvailableBytes", Path: l.root, Cause: err}
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func classifyOSErr(err error) ErrorKind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, os.ErrPermission):
		return ErrAccessDenied
	default:
		return ErrIO
	}
}
