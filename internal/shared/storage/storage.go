// Package storage saves uploaded documents under their client-given name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidName the upload has no usable file name.
var ErrInvalidName = errors.New("invalid file name")

// Object a stored upload.
type Object struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// Storage writes uploads. A later upload with the same name replaces the
// earlier one.
type Storage interface {
	Put(ctx context.Context, dir, filename string, r io.Reader, size int64, contentType string) (Object, error)
}

// SafeName strips any directory part the client put in the file name.
func SafeName(filename string) (string, error) {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return name, nil
}

// Local stores uploads below a root directory.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (s *Local) Put(ctx context.Context, dir, filename string, r io.Reader, size int64, contentType string) (Object, error) {
	name, err := SafeName(filename)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	targetDir := filepath.Join(s.root, filepath.Base(dir))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}
	target := filepath.Join(targetDir, name)

	dst, err := os.Create(target)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", target, err)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("write %s: %w", target, err)
	}
	return Object{Filename: name, Path: target, Size: n}, nil
}
