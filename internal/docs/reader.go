// Package docs reads the OpenAPI documents served by the api-docs routes.
package docs

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ReadFileFunc matches os.ReadFile.
type ReadFileFunc func(name string) ([]byte, error)

// Reader loads a document off the request goroutine's critical path: the read
// runs on its own goroutine and Read returns as soon as either the bytes are
// available or ctx is done.
type Reader struct {
	ReadFile ReadFileFunc
}

// NewReader returns a Reader backed by the local filesystem.
func NewReader() *Reader {
	return &Reader{ReadFile: os.ReadFile}
}

type readResult struct {
	data []byte
	err  error
}

// Read returns the full contents of path.
func (r *Reader) Read(ctx context.Context, path string) ([]byte, error) {
	readFile := r.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	done := make(chan readResult, 1)
	go func() {
		data, err := readFile(path)
		done <- readResult{data: data, err: err}
	}()
	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ContentType infers the media type of a document from its extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
