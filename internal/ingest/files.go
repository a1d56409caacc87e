package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileHandle is a user-selected file. Size is checked before Open is called.
type FileHandle interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type diskFile struct {
	path string
	size int64
}

// OpenFile returns a handle for a regular file on disk.
func OpenFile(path string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &diskFile{path: path, size: info.Size()}, nil
}

// OpenFiles returns handles for every path, failing on the first bad one.
func OpenFiles(paths []string) ([]FileHandle, error) {
	files := make([]FileHandle, 0, len(paths))
	for _, p := range paths {
		f, err := OpenFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (f *diskFile) Name() string { return filepath.Base(f.path) }
func (f *diskFile) Size() int64  { return f.size }

func (f *diskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
