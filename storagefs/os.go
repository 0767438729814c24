package storagefs

import (
	"bufio"
	"os"
	"path/filepath"
)

// OS is the default FileSystem, backed by the local disk.
type OS struct{}

func NewOS() *OS { return &OS{} }

func (OS) WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) ReadRange(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

type osLineReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

func (OS) OpenForLines(path string) (LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &osLineReader{file: f, scanner: bufio.NewScanner(f)}, nil
}

func (r *osLineReader) ReadLine() (string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return r.scanner.Text(), true, nil
}

func (r *osLineReader) Close() error {
	return r.file.Close()
}

func (OS) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (OS) ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, filepath.Join(dir, e.Name()))
	}
	return names, nil
}

var _ FileSystem = OS{}
